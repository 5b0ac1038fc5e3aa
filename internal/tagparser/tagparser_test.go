package tagparser

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractMentionsTypedAndUntyped(t *testing.T) {
	text := "Teaching [[topic:fractions]] with [[strategy:visual models]] and [[decimals]]"
	mentions := ExtractMentions(text)
	require.Equal(t, []Mention{
		{Type: "topic", Name: "fractions"},
		{Type: "strategy", Name: "visual models"},
		{Type: "topic", Name: "decimals"},
	}, mentions)
}

func TestExtractMentionsDedupesWithinText(t *testing.T) {
	text := "[[topic:fractions]] again with [[topic:fractions]] and [[Topic:FRACTIONS]]"
	mentions := ExtractMentions(text)
	require.Len(t, mentions, 1)
	require.Equal(t, Mention{Type: "topic", Name: "fractions"}, mentions[0])
}

func TestExtractMentionsUntypedDoesNotDoubleCountTypedSpan(t *testing.T) {
	text := "[[strategy:number lines]]"
	mentions := ExtractMentions(text)
	require.Len(t, mentions, 1)
	require.Equal(t, "strategy", mentions[0].Type)
}

func TestExtractMentionsUnknownTypeRetainedVerbatim(t *testing.T) {
	mentions := ExtractMentions("[[widget:gizmo]]")
	require.Len(t, mentions, 1)
	require.Equal(t, "widget", mentions[0].Type)
}

func TestExtractMentionsRoundTrip(t *testing.T) {
	text := "[[topic:fractions]] with [[strategy:visual models]]"
	first := ExtractMentions(text)

	var rebuilt string
	for _, m := range first {
		rebuilt += "[[" + m.Type + ":" + m.Name + "]] "
	}
	second := ExtractMentions(rebuilt)

	toSet := func(ms []Mention) map[Mention]bool {
		out := make(map[Mention]bool, len(ms))
		for _, m := range ms {
			out[m] = true
		}
		return out
	}
	require.Equal(t, toSet(first), toSet(second))
}

func TestExtractDecisionContext(t *testing.T) {
	text := "When students struggle with regrouping, I noticed they skip the borrow step because they never practiced it before this unit."
	ctx := ExtractDecisionContext(text)
	require.NotEmpty(t, ctx.Trigger)
	require.NotEmpty(t, ctx.Observations)
	require.NotEmpty(t, ctx.Rationale)
	require.False(t, ctx.IsEmpty())
}

func TestExtractDecisionContextEmpty(t *testing.T) {
	ctx := ExtractDecisionContext("Teaching fractions today.")
	require.True(t, ctx.IsEmpty())
}
