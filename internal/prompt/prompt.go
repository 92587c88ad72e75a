// Package prompt renders a transcript into the summarization instruction that
// is pasted back into the chat page.
package prompt

import (
	"fmt"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/scribe/internal/thread"
)

// Role labels shown before each turn. Unknown speakers use the user label.
const (
	UserLabel  = "【ユーザー】"
	ModelLabel = "【Gemini】"
)

// DateLayout is the calendar-day format used in the prompt and in records.
const DateLayout = "2006-01-02"

const turnSeparator = "\n\n---\n\n"

const summaryTemplate = `あなたは優秀な秘書であり、データアナリストです。提供された「会話履歴」を分析し、Notionデータベースに保存するための情報を以下のJSON形式で出力してください。内容はMECEを徹底し、取りこぼしがないようにしてください。

【出力ルール】

JSON形式のみを出力し、解説や前置きは一切不要です。

title: 会話全体の核心を突いた30文字以内のタイトル。

summary: 全体の要点を3行程度でまとめた概要。

content: 詳しいやり取りの内容。Markdown形式の箇条書きを用い、後から見返して内容が完全に把握できるように整理してください。

todos: 抽出された「次にやるべきこと（TODO）」と「既に完了したこと（DIDs）」を箇条書きで。なければ空文字。

date: 本日の日付（%s）。

【対象となる会話履歴】
%s`

// Label returns the display label for role.
func Label(role thread.Role) string {
	if role == thread.RoleModel {
		return ModelLabel
	}
	return UserLabel
}

// Today formats now as a UTC calendar day.
func Today(now time.Time) string {
	return now.UTC().Format(DateLayout)
}

// RenderTranscript renders each message as its label and content on two
// lines, separated by a horizontal rule.
func RenderTranscript(msgs thread.Transcript) string {
	blocks := make([]string, len(msgs))
	for i, m := range msgs {
		blocks[i] = Label(m.Role) + "\n" + m.Content
	}
	return strings.Join(blocks, turnSeparator)
}

// Build returns the summarization prompt for msgs, dated at now.
// Callers are expected to reject an empty transcript first.
func Build(msgs thread.Transcript, now time.Time) string {
	return fmt.Sprintf(summaryTemplate, Today(now), RenderTranscript(msgs))
}
