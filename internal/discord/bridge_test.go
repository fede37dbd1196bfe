package discord

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/s0up4200/seerr-bot/internal/agent"
	"github.com/s0up4200/seerr-bot/internal/llm"
	"github.com/s0up4200/seerr-bot/internal/session"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type sentMessage struct {
	channelID string
	content   string
	embeds    []Embed
}

// fakeMessenger records outbound messages.
type fakeMessenger struct {
	sent   []sentMessage
	typing int
}

func (f *fakeMessenger) CreateMessage(ctx context.Context, channelID, content string, embeds []Embed) error {
	f.sent = append(f.sent, sentMessage{channelID, content, embeds})
	return nil
}

func (f *fakeMessenger) TriggerTyping(ctx context.Context, channelID string) error {
	f.typing++
	return nil
}

// fakeRunner echoes a canned reply and records what it was asked.
type fakeRunner struct {
	reply    string
	received []string
	priors   [][]llm.Message
}

func (f *fakeRunner) Process(ctx context.Context, userID, text string, prior []llm.Message) *agent.Result {
	f.received = append(f.received, text)
	f.priors = append(f.priors, prior)
	conversation := append(append([]llm.Message{}, prior...),
		llm.Message{Role: "user", Content: text},
		llm.Message{Role: "assistant", Content: f.reply},
	)
	return &agent.Result{Text: f.reply, Conversation: conversation, Iterations: 1}
}

func testBridge(reply string) (*Bridge, *fakeMessenger, *fakeRunner, *session.Store) {
	rest := &fakeMessenger{}
	runner := &fakeRunner{reply: reply}
	sessions := session.NewStore(30*time.Minute, testLogger())
	bridge := NewBridge(BridgeConfig{
		Gateway:  NewGateway("", testLogger()),
		Rest:     rest,
		Runner:   runner,
		Sessions: sessions,
		Logger:   testLogger(),
	})
	return bridge, rest, runner, sessions
}

func dm(userID, content string) *Message {
	return &Message{
		ID:        "m1",
		ChannelID: "chan1",
		Content:   content,
		Author:    User{ID: userID, Username: "tester"},
	}
}

func TestHandleMessageRoundTrip(t *testing.T) {
	bridge, rest, runner, sessions := testBridge("Here you go!")

	bridge.HandleMessage(context.Background(), dm("user1", "find inception"))

	if len(runner.received) != 1 || runner.received[0] != "find inception" {
		t.Errorf("runner received %v", runner.received)
	}
	if len(rest.sent) != 1 || rest.sent[0].content != "Here you go!" {
		t.Errorf("sent = %+v", rest.sent)
	}
	if rest.typing != 1 {
		t.Errorf("typing indicators = %d, want 1", rest.typing)
	}
	if sessions.Get("user1") == nil {
		t.Error("session not stored after run")
	}
}

func TestHandleMessagePassesPriorConversation(t *testing.T) {
	bridge, _, runner, _ := testBridge("ok")

	bridge.HandleMessage(context.Background(), dm("user1", "first"))
	bridge.HandleMessage(context.Background(), dm("user1", "second"))

	if len(runner.priors) != 2 {
		t.Fatalf("runner called %d times", len(runner.priors))
	}
	if runner.priors[0] != nil {
		t.Error("first run should start with no prior conversation")
	}
	if len(runner.priors[1]) != 2 {
		t.Errorf("second run got %d prior turns, want 2", len(runner.priors[1]))
	}
}

func TestResetCommand(t *testing.T) {
	bridge, rest, runner, sessions := testBridge("ok")

	sessions.Set("user1", []llm.Message{{Role: "user", Content: "old"}})
	bridge.HandleMessage(context.Background(), dm("user1", "!reset"))

	if sessions.Get("user1") != nil {
		t.Error("reset did not clear the session")
	}
	if len(runner.received) != 0 {
		t.Error("reset must not invoke the agent loop")
	}
	if len(rest.sent) != 1 || !strings.Contains(rest.sent[0].content, "cleared") {
		t.Errorf("sent = %+v, want reset confirmation", rest.sent)
	}
}

func TestIgnoresBots(t *testing.T) {
	bridge, rest, runner, _ := testBridge("ok")

	msg := dm("bot1", "hello")
	msg.Author.Bot = true
	bridge.HandleMessage(context.Background(), msg)

	if len(runner.received) != 0 || len(rest.sent) != 0 {
		t.Error("bot-authored messages must be ignored")
	}
}

func TestGuildMessageRequiresMentionOrChannel(t *testing.T) {
	bridge, _, runner, _ := testBridge("ok")
	bridge.gateway.botUserID.Store("botid")

	// Unmentioned guild message in an unconfigured channel: ignored.
	msg := dm("user1", "hello")
	msg.GuildID = "guild1"
	bridge.HandleMessage(context.Background(), msg)
	if len(runner.received) != 0 {
		t.Fatal("unmentioned guild message should be ignored")
	}

	// Mentioning the bot gets through, with the token stripped.
	msg = dm("user1", "<@botid> find inception")
	msg.Content = "<@123456> find inception"
	msg.GuildID = "guild1"
	msg.Mentions = []User{{ID: "botid"}}
	bridge.HandleMessage(context.Background(), msg)
	if len(runner.received) != 1 {
		t.Fatal("mentioned guild message should be handled")
	}
	if runner.received[0] != "find inception" {
		t.Errorf("mention token not stripped: %q", runner.received[0])
	}
}

func TestAllowedChannelWithoutMention(t *testing.T) {
	rest := &fakeMessenger{}
	runner := &fakeRunner{reply: "ok"}
	bridge := NewBridge(BridgeConfig{
		Gateway:  NewGateway("", testLogger()),
		Rest:     rest,
		Runner:   runner,
		Sessions: session.NewStore(time.Minute, testLogger()),
		Channels: []string{"chan1"},
		Logger:   testLogger(),
	})

	msg := dm("user1", "hello there everyone")
	msg.GuildID = "guild1"
	bridge.HandleMessage(context.Background(), msg)
	if len(runner.received) != 1 {
		t.Error("message in an allowed channel should be handled without a mention")
	}
}

func TestDeliverPosterSections(t *testing.T) {
	reply := "Found it! Here is the top match for your search, great movie. [POSTER:https://x/a.jpg] " +
		"And a second option you might also enjoy watching sometime. [POSTER:https://x/b.jpg]"
	bridge, rest, _, _ := testBridge(reply)

	bridge.HandleMessage(context.Background(), dm("user1", "find movies"))

	if len(rest.sent) != 2 {
		t.Fatalf("sent %d messages, want 2 poster sections", len(rest.sent))
	}
	for i, want := range []string{"https://x/a.jpg", "https://x/b.jpg"} {
		msg := rest.sent[i]
		if len(msg.embeds) != 1 || msg.embeds[0].Image == nil || msg.embeds[0].Image.URL != want {
			t.Errorf("message %d embeds = %+v, want image %s", i, msg.embeds, want)
		}
		if strings.Contains(msg.content, "[POSTER:") {
			t.Errorf("poster directive leaked to user: %q", msg.content)
		}
	}
}

func TestDeliverChunksLongText(t *testing.T) {
	bridge, rest, _, _ := testBridge(strings.Repeat("x", 4500))

	bridge.HandleMessage(context.Background(), dm("user1", "talk a lot"))

	if len(rest.sent) != 3 {
		t.Fatalf("sent %d messages, want 3 chunks", len(rest.sent))
	}
	for i, msg := range rest.sent {
		if len(msg.content) > MessageLimit {
			t.Errorf("chunk %d exceeds platform limit: %d chars", i, len(msg.content))
		}
	}
}

func TestTruncateRuneBoundary(t *testing.T) {
	s := strings.Repeat("ü", 30)
	got := truncate(s, 20)
	if !utf8.ValidString(got) {
		t.Fatalf("truncate produced invalid UTF-8: %q", got)
	}
	if len(got) > 20 {
		t.Errorf("truncated to %d bytes, want at most 20", len(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("truncated text must end with ellipsis: %q", got)
	}
	if got := truncate("short", 20); got != "short" {
		t.Errorf("short input = %q", got)
	}
}
