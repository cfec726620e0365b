package htmlx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const primaryHTML = `
<html><body>
  <ul>
    <li class="film-detail"><div class="body-text">Great <b>movie</b>.</div></li>
    <li class="film-detail"><div class="body-text">
      Loved
      it.
    </div></li>
  </ul>
</body></html>`

const alternateHTML = `
<html><body>
  <div class="review"><p class="review-text">Great movie.</p></div>
  <div class="review"><p class="review-text">Loved it.</p></div>
</body></html>`

func reviewStrategies() []Strategy {
	return []Strategy{
		{Name: "primary", ItemSelector: "li.film-detail", TextSelector: ".body-text"},
		{Name: "alternate", ItemSelector: "div.review", TextSelector: ".review-text"},
	}
}

func TestExtractFirstUsesPrimaryWhenItMatches(t *testing.T) {
	t.Parallel()

	doc, err := Parse([]byte(primaryHTML))
	require.NoError(t, err)

	items, name := ExtractFirst(doc, reviewStrategies())
	require.Equal(t, "primary", name)
	require.Equal(t, []string{"Great movie.", "Loved it."}, items)
}

func TestExtractFirstFallsBackToAlternate(t *testing.T) {
	t.Parallel()

	doc, err := Parse([]byte(alternateHTML))
	require.NoError(t, err)

	items, name := ExtractFirst(doc, reviewStrategies())
	require.Equal(t, "alternate", name)
	require.Equal(t, []string{"Great movie.", "Loved it."}, items)
}

func TestExtractFirstBothLayoutsYieldSameItems(t *testing.T) {
	t.Parallel()

	primaryDoc, err := Parse([]byte(primaryHTML))
	require.NoError(t, err)
	alternateDoc, err := Parse([]byte(alternateHTML))
	require.NoError(t, err)

	primaryItems, _ := ExtractFirst(primaryDoc, reviewStrategies())
	alternateItems, _ := ExtractFirst(alternateDoc, reviewStrategies())
	require.Equal(t, primaryItems, alternateItems)
}

func TestExtractFirstNoStrategyMatches(t *testing.T) {
	t.Parallel()

	doc, err := Parse([]byte(`<html><body><p>nothing here</p></body></html>`))
	require.NoError(t, err)

	items, name := ExtractFirst(doc, reviewStrategies())
	require.Empty(t, items)
	require.Empty(t, name)
}

func TestCollapseWhitespace(t *testing.T) {
	t.Parallel()

	require.Equal(t, "a b c", CollapseWhitespace("  a\n\tb   c\n"))
	require.Equal(t, "", CollapseWhitespace(" \n\t "))
}
