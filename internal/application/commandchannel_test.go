package application_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/wpass/internal/application"
)

type channelRig struct {
	link     *fakeLink
	ch       *application.CommandChannel
	lines    []string
	connects int
}

func newChannelRig() *channelRig {
	p := &channelRig{link: &fakeLink{}}
	p.ch = application.NewCommandChannel(p.link,
		func(_ context.Context, raw json.RawMessage) { p.lines = append(p.lines, string(raw)) },
		func() { p.connects++ },
		discardLogger(),
	)
	return p
}

func TestCommandChannel_ConnectFiresOncePerTransition(t *testing.T) {
	p := newChannelRig()

	p.ch.Poll(context.Background())
	assert.Equal(t, 0, p.connects)

	p.link.attach("host-1")
	p.ch.Poll(context.Background())
	p.ch.Poll(context.Background())
	assert.Equal(t, 1, p.connects)
	assert.True(t, p.ch.Connected())

	p.link.detach()
	p.ch.Poll(context.Background())
	assert.Equal(t, 1, p.connects, "disconnect fires no event")
	assert.False(t, p.ch.Connected())

	p.link.attach("host-2")
	p.ch.Poll(context.Background())
	assert.Equal(t, 2, p.connects)
}

func TestCommandChannel_OneLinePerPoll(t *testing.T) {
	p := newChannelRig()
	p.link.attach("host-1")
	p.link.send("{\"DataType\":4}\n[1,2]\n\"three\"\n")

	raw, ok := p.ch.Poll(context.Background())
	require.True(t, ok)
	assert.JSONEq(t, `{"DataType":4}`, string(raw))
	assert.Len(t, p.lines, 1)

	_, ok = p.ch.Poll(context.Background())
	require.True(t, ok)
	_, ok = p.ch.Poll(context.Background())
	require.True(t, ok)
	_, ok = p.ch.Poll(context.Background())
	assert.False(t, ok)

	assert.Equal(t, []string{`{"DataType":4}`, `[1,2]`, `"three"`}, p.lines)
}

func TestCommandChannel_WaitsForTerminator(t *testing.T) {
	p := newChannelRig()
	p.link.attach("host-1")

	p.link.send(`{"DataType":`)
	_, ok := p.ch.Poll(context.Background())
	assert.False(t, ok)

	p.link.send("4}\r\n")
	raw, ok := p.ch.Poll(context.Background())
	require.True(t, ok)
	assert.Equal(t, `{"DataType":4}`, string(raw))
}

func TestCommandChannel_MalformedLineIsDiscarded(t *testing.T) {
	var logs logBuffer
	link := &fakeLink{session: "host-1"}
	var lines []string
	ch := application.NewCommandChannel(link, func(_ context.Context, raw json.RawMessage) { lines = append(lines, string(raw)) }, nil, newTestLogger(&logs))

	link.send("not json at all\n{\"DataType\":1,\n\n{\"DataType\":4}\n")

	_, ok := ch.Poll(context.Background())
	assert.False(t, ok)
	_, ok = ch.Poll(context.Background())
	assert.False(t, ok)
	_, ok = ch.Poll(context.Background())
	assert.False(t, ok, "empty line is skipped")
	_, ok = ch.Poll(context.Background())
	assert.True(t, ok)

	assert.Equal(t, []string{`{"DataType":4}`}, lines)
	assert.Contains(t, logs.String(), "discarding undecodable line")
}

func TestCommandChannel_DropsOversizedPartialLine(t *testing.T) {
	p := newChannelRig()
	p.ch.SetMaxLineBytes(16)
	p.link.attach("host-1")

	p.link.send(strings.Repeat("x", 64))
	_, ok := p.ch.Poll(context.Background())
	assert.False(t, ok)

	p.link.send("\n{\"DataType\":4}\n")
	_, ok = p.ch.Poll(context.Background())
	assert.False(t, ok, "tail of the dropped line is an empty remainder")
	raw, ok := p.ch.Poll(context.Background())
	require.True(t, ok)
	assert.Equal(t, `{"DataType":4}`, string(raw))
}

func TestCommandChannel_DetachedHostLinesAreStillDelivered(t *testing.T) {
	p := newChannelRig()
	p.link.attach("host-1")
	p.ch.Poll(context.Background())

	p.link.send("{\"DataType\":0,\"Account\":{}}\n{\"DataType\":4}\n{\"DataType\":")
	p.link.detach()

	for range 4 {
		p.ch.Poll(context.Background())
	}
	assert.Equal(t, []string{`{"DataType":0,"Account":{}}`, `{"DataType":4}`}, p.lines,
		"complete lines survive the detach in arrival order")

	p.link.attach("host-2")
	p.link.send("4}\n")
	_, ok := p.ch.Poll(context.Background())
	assert.False(t, ok, "fragment of the departed host is not joined to new input")
	assert.Equal(t, 2, p.connects)
	assert.Len(t, p.lines, 2)
}

func TestCommandChannel_HostReplacedWithinOneTick(t *testing.T) {
	p := newChannelRig()
	p.link.attach("host-1")
	p.link.send("1\n2\n{\"Data")
	p.ch.Poll(context.Background())
	require.Equal(t, 1, p.connects)
	require.Equal(t, []string{"1"}, p.lines)

	p.link.attach("host-2")
	p.link.send("3\n")

	p.ch.Poll(context.Background())
	assert.Equal(t, []string{"1", "2"}, p.lines, "carried line from the first host comes first")
	assert.Equal(t, 1, p.connects, "second host is announced after the carried line")

	p.ch.Poll(context.Background())
	assert.Equal(t, 2, p.connects)
	assert.Equal(t, []string{"1", "2", "3"}, p.lines)
	assert.True(t, p.ch.Connected())
}

func TestCommandChannel_PassesContextToLineHandler(t *testing.T) {
	type key struct{}
	link := &fakeLink{session: "host-1"}
	var got any
	ch := application.NewCommandChannel(link, func(ctx context.Context, _ json.RawMessage) { got = ctx.Value(key{}) }, nil, discardLogger())

	link.send("{}\n")
	ch.Poll(context.WithValue(context.Background(), key{}, "tick"))

	assert.Equal(t, "tick", got)
}

func TestCommandChannel_WriteLine(t *testing.T) {
	p := newChannelRig()

	require.NoError(t, p.ch.WriteLine([]int{1}))
	assert.Empty(t, p.link.out.String(), "writes while disconnected are dropped")

	p.link.attach("host-1")
	require.NoError(t, p.ch.WriteLine(map[string]int{"a": 1}))
	assert.Equal(t, "{\"a\":1}\n", p.link.out.String())

	p.link.writeErr = errDiskFull
	assert.ErrorIs(t, p.ch.WriteLine(1), errDiskFull)

	assert.Error(t, p.ch.WriteLine(func() {}))
}
