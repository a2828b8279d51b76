package prompt

import (
	"fmt"
	"strings"

	"github.com/det175/lanibot-gateway/internal/types"
)

// ReferenceLoader supplies concatenated study content for a set of LLABs.
type ReferenceLoader interface {
	LoadReference(llabNumbers []int) string
}

// Builder assembles the system message that frames a quiz conversation.
type Builder struct {
	content ReferenceLoader
}

func NewBuilder(content ReferenceLoader) *Builder {
	return &Builder{content: content}
}

const systemTemplate = `You are Lani Bot, an intelligent study assistant for Detachment 175 cadets preparing for Warrior Knowledge and General Cadet Knowledge assessments.

**Your Role:**
- Help cadets study and test their knowledge on the selected LLAB topics
- Ask quiz questions based on the provided LLAB content
- Provide clear, accurate explanations when cadets answer incorrectly
- Be encouraging, professional, and helpful
- Stay focused on Det 175/Air Force topics only

**Quiz Mode:** %s

**LLAB Topics Selected:** %s

**Important Guidelines:**
1. Generate questions directly from the LLAB content below
2. For multiple choice questions, provide 4 options (A, B, C, D)
3. After the cadet answers, confirm if correct and explain the answer
4. If the cadet asks to focus on different LLABs, politely inform them to reload the page
5. Keep responses concise and focused
6. Do not make up information - only use the provided LLAB content

**LLAB Content:**
%s

Begin by greeting the cadet and asking if they're ready for their first question.`

// Build produces the system message for the given LLAB selection and quiz
// mode. Deterministic over an unchanged content store. Callers must only
// invoke it when the conversation does not already start with a system
// message; the client resends the original prefix on later turns.
func (b *Builder) Build(llabNumbers []int, quizMode string) types.Message {
	topics := make([]string, len(llabNumbers))
	for i, n := range llabNumbers {
		topics[i] = fmt.Sprintf("LLAB %d", n)
	}

	content := b.content.LoadReference(llabNumbers)

	return types.Message{
		Role:    types.RoleSystem,
		Content: fmt.Sprintf(systemTemplate, quizMode, strings.Join(topics, ", "), content),
	}
}
