// Package prompt builds the classification prompt and the Q&A prompt
// from templates, retrieved context, and session history (spec §4.6),
// using text/template the way the rest of the corpus assembles
// generation prompts.
package prompt

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/rayied/cora/pkg/models"
)

// Assembler renders the two prompt pairs C8 and C9 depend on.
type Assembler struct {
	qaSystem  *template.Template
	qaUser    *template.Template
	clsSystem *template.Template
	clsUser   *template.Template
}

func New() *Assembler {
	return &Assembler{
		qaSystem:  template.Must(template.New("qa_system").Parse(qaSystemTemplate)),
		qaUser:    template.Must(template.New("qa_user").Parse(qaUserTemplate)),
		clsSystem: template.Must(template.New("cls_system").Parse(classificationSystemTemplate)),
		clsUser:   template.Must(template.New("cls_user").Parse(classificationUserTemplate)),
	}
}

// FormatHistory renders turns as "Customer: ...\nYou: ..." lines, the
// shape the Q&A system prompt and original_source/src/api/session.py's
// get_context_string both use.
func FormatHistory(turns []models.Turn) string {
	if len(turns) == 0 {
		return ""
	}
	var b strings.Builder
	for _, t := range turns {
		speaker := "Customer"
		if t.Role == models.RoleAssistant {
			speaker = "You"
		}
		fmt.Fprintf(&b, "%s: %s\n", speaker, t.Content)
	}
	return strings.TrimRight(b.String(), "\n")
}

// AssembleQA renders the Q&A system and user prompts from retrieved
// context, conversation history, and the current question.
func (a *Assembler) AssembleQA(context, history, question string) (system, user string, err error) {
	var sysBuf, userBuf bytes.Buffer
	if err := a.qaSystem.Execute(&sysBuf, map[string]string{"Context": context}); err != nil {
		return "", "", err
	}
	if err := a.qaUser.Execute(&userBuf, map[string]string{"History": history, "Question": question}); err != nil {
		return "", "", err
	}
	return sysBuf.String(), userBuf.String(), nil
}

// AssembleClassification renders the classification system and user
// prompts from retrieved context and the input text.
func (a *Assembler) AssembleClassification(context, text string) (system, user string, err error) {
	var sysBuf, userBuf bytes.Buffer
	if err := a.clsSystem.Execute(&sysBuf, map[string]string{"Context": context}); err != nil {
		return "", "", err
	}
	if err := a.clsUser.Execute(&userBuf, map[string]string{"Text": text}); err != nil {
		return "", "", err
	}
	return sysBuf.String(), userBuf.String(), nil
}
