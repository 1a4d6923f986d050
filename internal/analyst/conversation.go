package analyst

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"prisma/internal/adapters/ai"
)

// Entry is a conversation message plus bookkeeping for compression.
type Entry struct {
	Message   ai.Message
	Timestamp time.Time
	Tokens    int
}

// Conversation accumulates the message history of a single analysis run and
// keeps it within the model's context budget.
type Conversation struct {
	mu         sync.Mutex
	entries    []Entry
	maxTokens  int
	currTokens int
}

const defaultContextBudget = 100000

func NewConversation(maxTokens int) *Conversation {
	if maxTokens <= 0 {
		maxTokens = defaultContextBudget
	}
	return &Conversation{
		entries:   make([]Entry, 0, 16),
		maxTokens: maxTokens,
	}
}

func (c *Conversation) Add(msg ai.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tokens := estimateTokens(msg.Content)
	c.entries = append(c.entries, Entry{
		Message:   msg,
		Timestamp: time.Now(),
		Tokens:    tokens,
	})
	c.currTokens += tokens

	if c.currTokens > c.maxTokens {
		c.compress()
	}
}

func (c *Conversation) AddSystem(content string) {
	c.Add(ai.Message{Role: ai.RoleSystem, Content: content})
}

func (c *Conversation) AddUser(content string) {
	c.Add(ai.Message{Role: ai.RoleUser, Content: content})
}

func (c *Conversation) AddToolResult(toolCallID, toolName, content string) {
	c.Add(ai.Message{
		Role:       ai.RoleTool,
		Content:    content,
		ToolCallID: toolCallID,
		Name:       toolName,
	})
}

// Messages returns the history in wire order.
func (c *Conversation) Messages() []ai.Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	msgs := make([]ai.Message, len(c.entries))
	for i, e := range c.entries {
		msgs[i] = e.Message
	}
	return msgs
}

func (c *Conversation) TokenCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currTokens
}

// IsComplete reports whether the last message is a final assistant answer.
func (c *Conversation) IsComplete() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) == 0 {
		return false
	}
	last := c.entries[len(c.entries)-1].Message
	return last.Role == ai.RoleAssistant && len(last.ToolCalls) == 0
}

// compress folds older messages into a summary, keeping the system prompt and
// the most recent exchanges verbatim. Caller holds the lock.
func (c *Conversation) compress() {
	const keepRecent = 10
	if len(c.entries) <= keepRecent+1 {
		return
	}

	var head []Entry
	body := c.entries
	if body[0].Message.Role == ai.RoleSystem {
		head = body[:1]
		body = body[1:]
	}
	if len(body) <= keepRecent {
		return
	}

	older := body[:len(body)-keepRecent]
	recent := body[len(body)-keepRecent:]

	summary := summarizeEntries(older)
	summaryEntry := Entry{
		Message:   ai.Message{Role: ai.RoleUser, Content: summary},
		Timestamp: time.Now(),
		Tokens:    estimateTokens(summary),
	}

	c.entries = append(append(append([]Entry{}, head...), summaryEntry), recent...)

	c.currTokens = 0
	for _, e := range c.entries {
		c.currTokens += e.Tokens
	}
}

func summarizeEntries(entries []Entry) string {
	var sb strings.Builder
	sb.WriteString("[HISTÓRICO COMPRIMIDO]\n")
	sb.WriteString(fmt.Sprintf("Mensagens anteriores: %d\n", len(entries)))

	toolsUsed := make(map[string]int)
	var findings []string
	for _, e := range entries {
		if e.Message.Role == ai.RoleTool && e.Message.Name != "" {
			toolsUsed[e.Message.Name]++
		}
		if e.Message.Role == ai.RoleAssistant && e.Message.Content != "" {
			finding := e.Message.Content
			if len(finding) > 100 {
				finding = finding[:100] + "..."
			}
			findings = append(findings, finding)
		}
	}

	if len(toolsUsed) > 0 {
		sb.WriteString("Ferramentas utilizadas:\n")
		for name, count := range toolsUsed {
			sb.WriteString(fmt.Sprintf("  - %s: %dx\n", name, count))
		}
	}

	if len(findings) > 0 {
		sb.WriteString("Conclusões parciais:\n")
		limit := len(findings)
		if limit > 5 {
			limit = 5
		}
		for _, f := range findings[:limit] {
			sb.WriteString("  - " + f + "\n")
		}
	}
	return sb.String()
}

// Rough heuristic, about four characters per token.
func estimateTokens(content string) int {
	return len(content) / 4
}
