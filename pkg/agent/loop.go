package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bookwormlabs/jarvisbot/pkg/books"
	"github.com/bookwormlabs/jarvisbot/pkg/bus"
	"github.com/bookwormlabs/jarvisbot/pkg/logger"
	"github.com/bookwormlabs/jarvisbot/pkg/profile"
	"github.com/bookwormlabs/jarvisbot/pkg/provider"
)

const (
	componentAgent = "agent"

	chatTimeout   = 120 * time.Second
	searchTimeout = 30 * time.Second

	systemPrompt = "You are Jarvis, a friendly reading companion. Keep replies " +
		"conversational and concise. When books come up, be curious about what " +
		"the user enjoys."
)

const helpText = `Hi, I'm Jarvis. Talk to me about anything, or try:
/search <topic> - find books about a topic
/recommend - meet users who share your interests
/setname <name> - tell me what to call you`

// Loop consumes inbound messages from the bus, routes commands, and
// publishes replies. Free-form text feeds the user's conversation log
// and interest model before being answered by the language model.
type Loop struct {
	bus         *bus.MessageBus
	provider    provider.Provider
	profiles    *profile.Service
	searcher    books.Searcher
	defaultLang string
}

// NewLoop wires the loop's collaborators. defaultLang is the search
// language used when the model does not name one; empty falls back to
// English.
func NewLoop(b *bus.MessageBus, p provider.Provider, profiles *profile.Service, searcher books.Searcher, defaultLang string) *Loop {
	if defaultLang == "" {
		defaultLang = "en"
	}
	return &Loop{
		bus:         b,
		provider:    p,
		profiles:    profiles,
		searcher:    searcher,
		defaultLang: defaultLang,
	}
}

// Run blocks, draining inbound messages until ctx is cancelled or the
// bus is closed. Each message is handled on its own goroutine; per-user
// ordering is enforced by the profile service's locks.
func (l *Loop) Run(ctx context.Context) {
	logger.InfoC(componentAgent, "message loop started")
	for {
		msg, ok := l.bus.ConsumeInbound(ctx)
		if !ok {
			logger.InfoC(componentAgent, "message loop stopped")
			return
		}
		go l.handleInbound(ctx, msg)
	}
}

func (l *Loop) handleInbound(ctx context.Context, msg bus.InboundMessage) {
	trace := uuid.NewString()[:8]
	logger.DebugCF(componentAgent, "handling message", map[string]interface{}{
		"trace":   trace,
		"channel": msg.Channel,
		"sender":  msg.SenderID,
		"command": msg.Command,
	})

	reply, choices := l.respond(ctx, trace, msg.SenderID, msg.SenderName, msg.Command, msg.Args, msg.Content)
	if reply == "" {
		return
	}
	if !l.bus.PublishOutbound(bus.OutboundMessage{
		Channel: msg.Channel,
		ChatID:  msg.ChatID,
		Content: reply,
		Choices: choices,
	}) {
		logger.WarnCF(componentAgent, "outbound reply dropped", map[string]interface{}{
			"trace":   trace,
			"channel": msg.Channel,
		})
	}
}

// ProcessDirect handles one exchange synchronously and returns the
// reply text. Used by the interactive console, which has no channel to
// publish to.
func (l *Loop) ProcessDirect(ctx context.Context, userID, content string) string {
	trace := uuid.NewString()[:8]
	command, args, isCommand := splitCommand(content)
	if !isCommand {
		command, args = "", ""
	}
	reply, _ := l.respond(ctx, trace, userID, "", command, args, content)
	return reply
}

func (l *Loop) respond(ctx context.Context, trace, userID, senderName, command, args, content string) (string, []string) {
	switch command {
	case "":
		return l.chat(ctx, trace, userID, content), nil
	case "start", "help":
		return helpText, nil
	case "search":
		return l.search(ctx, trace, userID, args)
	case "recommend":
		return l.recommend(ctx, trace, userID), nil
	case "setname":
		return l.setName(ctx, trace, userID, senderName, args), nil
	default:
		return fmt.Sprintf("I don't know /%s. Try /help to see what I can do.", command), nil
	}
}

func (l *Loop) chat(ctx context.Context, trace, userID, content string) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}
	if err := l.profiles.RecordUserTurn(ctx, userID, content); err != nil {
		logger.ErrorCF(componentAgent, "recording user turn failed", map[string]interface{}{
			"trace": trace,
			"user":  userID,
			"error": err.Error(),
		})
		return "My memory is acting up right now, please try again in a moment."
	}

	turns, err := l.profiles.History(ctx, userID)
	if err != nil {
		logger.ErrorCF(componentAgent, "loading history failed", map[string]interface{}{
			"trace": trace,
			"user":  userID,
			"error": err.Error(),
		})
		return "My memory is acting up right now, please try again in a moment."
	}

	messages := make([]provider.Message, 0, len(turns)+1)
	messages = append(messages, provider.Message{Role: "system", Content: systemPrompt})
	for _, t := range turns {
		messages = append(messages, provider.Message{Role: t.Role, Content: t.Content})
	}

	chatCtx, cancel := context.WithTimeout(ctx, chatTimeout)
	defer cancel()
	answer, err := l.provider.Chat(chatCtx, messages)
	if err != nil {
		logger.ErrorCF(componentAgent, "chat completion failed", map[string]interface{}{
			"trace": trace,
			"user":  userID,
			"error": err.Error(),
		})
		return "I'm having trouble thinking right now, please try again shortly."
	}

	if err := l.profiles.RecordAssistantTurn(ctx, userID, answer); err != nil {
		// The reply is still worth sending; the log just missed a turn.
		logger.WarnCF(componentAgent, "recording assistant turn failed", map[string]interface{}{
			"trace": trace,
			"user":  userID,
			"error": err.Error(),
		})
	}
	return answer
}

func (l *Loop) search(ctx context.Context, trace, userID, args string) (string, []string) {
	args = strings.TrimSpace(args)
	if args == "" {
		return "Tell me what to look for, e.g. /search norse mythology", nil
	}

	query := l.extractQuery(ctx, trace, args)
	searchCtx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()
	results, err := l.searcher.Search(searchCtx, query)
	if err != nil {
		logger.ErrorCF(componentAgent, "book search failed", map[string]interface{}{
			"trace": trace,
			"user":  userID,
			"error": err.Error(),
		})
		return "The book catalogue isn't answering right now, please try again later.", nil
	}
	if len(results) == 0 {
		return fmt.Sprintf("I couldn't find any books about %q. Try different keywords?", args), nil
	}

	choices := make([]string, 0, len(results))
	for _, b := range results {
		choices = append(choices, b.Title)
	}
	return l.presentBooks(ctx, trace, args, results), choices
}

// extractQuery asks the language model to turn a free-form request into
// structured search terms, falling back to the raw words when the
// completion cannot be parsed.
func (l *Loop) extractQuery(ctx context.Context, trace, args string) books.Query {
	prompt := fmt.Sprintf(`Extract book search terms from the request below.
Answer with only a JSON object of the form {"keywords": ["..."], "language": "two-letter code"}.
Request: %s`, args)

	extractCtx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()
	completion, err := l.provider.Chat(extractCtx, []provider.Message{{Role: "user", Content: prompt}})
	if err == nil {
		if q, ok := parseQueryJSON(completion, l.defaultLang); ok {
			return q
		}
	}
	if err != nil {
		logger.WarnCF(componentAgent, "query extraction failed, using raw keywords", map[string]interface{}{
			"trace": trace,
			"error": err.Error(),
		})
	}
	return books.Query{Keywords: strings.Fields(args), Language: l.defaultLang}
}

func (l *Loop) presentBooks(ctx context.Context, trace, topic string, results []books.Book) string {
	listing, err := json.Marshal(results)
	if err == nil {
		prompt := fmt.Sprintf(`The user asked about %q. Present these search results as a short,
friendly reading list. Mention each title, its authors and a one-line hook, and include the link.
Results: %s`, topic, listing)

		presentCtx, cancel := context.WithTimeout(ctx, chatTimeout)
		defer cancel()
		answer, chatErr := l.provider.Chat(presentCtx, []provider.Message{{Role: "user", Content: prompt}})
		if chatErr == nil {
			return answer
		}
		logger.WarnCF(componentAgent, "result presentation failed, using plain listing", map[string]interface{}{
			"trace": trace,
			"error": chatErr.Error(),
		})
	}

	var sb strings.Builder
	sb.WriteString("Here's what I found:\n")
	for _, b := range results {
		sb.WriteString(fmt.Sprintf("\n%s", b.Title))
		if len(b.Authors) > 0 {
			sb.WriteString(" by " + strings.Join(b.Authors, ", "))
		}
		if b.Link != "" {
			sb.WriteString("\n" + b.Link)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (l *Loop) recommend(ctx context.Context, trace, userID string) string {
	matches, err := l.profiles.Recommend(ctx, userID)
	if err != nil {
		if err == profile.ErrInsufficientData {
			return "I don't know your tastes well enough yet. Chat with me a bit more, then ask again!"
		}
		logger.ErrorCF(componentAgent, "recommendation failed", map[string]interface{}{
			"trace": trace,
			"user":  userID,
			"error": err.Error(),
		})
		return "I can't reach my notes right now, please try again in a moment."
	}
	if len(matches) == 0 {
		return "No kindred spirits yet. Check back once more readers have chatted with me."
	}

	var sb strings.Builder
	sb.WriteString("Readers who share your interests:\n")
	for _, m := range matches {
		sb.WriteString(fmt.Sprintf("\n%s (%.0f%% match)", m.Username, m.Score*100))
	}
	return sb.String()
}

func (l *Loop) setName(ctx context.Context, trace, userID, senderName, args string) string {
	name := strings.TrimSpace(args)
	if name == "" {
		name = senderName
	}
	if name == "" {
		return "Tell me the name, e.g. /setname Alice"
	}
	if err := l.profiles.SetUsername(ctx, userID, name); err != nil {
		logger.ErrorCF(componentAgent, "saving username failed", map[string]interface{}{
			"trace": trace,
			"user":  userID,
			"error": err.Error(),
		})
		return "I couldn't save that right now, please try again in a moment."
	}
	return fmt.Sprintf("Got it, I'll call you %s.", name)
}

// parseQueryJSON pulls the outermost JSON object out of a completion
// that may wrap it in prose or code fences.
func parseQueryJSON(completion, defaultLang string) (books.Query, bool) {
	start := strings.Index(completion, "{")
	end := strings.LastIndex(completion, "}")
	if start < 0 || end <= start {
		return books.Query{}, false
	}
	var q books.Query
	if err := json.Unmarshal([]byte(completion[start:end+1]), &q); err != nil {
		return books.Query{}, false
	}
	if len(q.Keywords) == 0 {
		return books.Query{}, false
	}
	if q.Language == "" {
		q.Language = defaultLang
	}
	return q, true
}

// splitCommand mirrors the channel-side command parsing for direct
// console input.
func splitCommand(content string) (string, string, bool) {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "/") {
		return "", "", false
	}
	cmd, args, _ := strings.Cut(content[1:], " ")
	if cmd == "" {
		return "", "", false
	}
	return cmd, strings.TrimSpace(args), true
}
