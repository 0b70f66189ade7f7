package agent

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/desertthunder/cliptune/internal/search"
)

// initialQueriesPrompt asks for the first round of search queries.
func initialQueriesPrompt(anchor string) string {
	return fmt.Sprintf(`Generate 3-4 different YouTube search queries to find the exact song: '%s'

Return ONLY a JSON array of search query strings, like:
["query 1", "query 2", "query 3"]

Generate variations like:
- Exact artist and song name
- With "official" or "music video"
- Alternative spellings or formats
- Without extra words that might confuse search

Example for "Never Gonna Give You Up - Rick Astley":
["Rick Astley Never Gonna Give You Up", "Rick Astley Never Gonna Give You Up official", "Never Gonna Give You Up Rick Astley music video", "Rick Astley Never Gonna Give You Up 1987"]`, anchor)
}

// refinedQueriesPrompt asks for new queries informed by earlier rejections.
func refinedQueriesPrompt(anchor string, prior []Failure) string {
	var context strings.Builder
	for _, f := range prior {
		fmt.Fprintf(&context, "Query: %s | Reasoning: %s\n", f.Query, f.Reasoning)
	}

	return fmt.Sprintf(`Based on previous search attempts, generate 2-3 NEW refined YouTube search queries for: '%s'

Previous attempts:
%s
Return ONLY a JSON array of search query strings.

Try different approaches:
- More specific terms
- Different word order
- Add year, genre, or album info
- Try alternate artist/song spellings
- Focus on official sources`, anchor, context.String())
}

// strictQueriesPrompt re-asks with an exact output schema after a response
// that could not be parsed.
func strictQueriesPrompt(anchor string) string {
	return fmt.Sprintf(`Find this song on YouTube: %s

You are a music search expert. Generate effective YouTube search queries for the given song.

Return ONLY valid JSON in exactly this format: {"queries": ["query1", "query2", "query3"]}. Include 2-3 search query strings.`, anchor)
}

func resultLines(results []search.Result) string {
	var summary strings.Builder
	for i, r := range results {
		fmt.Fprintf(&summary, "%d. Title: %q | Uploader: %s | Duration: %ds | Views: %s | URL: %s\n",
			i, r.Title, r.Uploader, r.Duration, humanize.Comma(r.ViewCount), r.URL)
	}
	return summary.String()
}

// analysisPrompt asks the model to pick the best result from this
// iteration's combined results. Results are numbered from 0 so the returned
// index maps straight back onto the slice.
func analysisPrompt(anchor string, results []search.Result, prior []Failure) string {
	var context string
	if len(prior) > 0 {
		var b strings.Builder
		b.WriteString("\nPrevious iterations:\n")
		for _, f := range prior {
			fmt.Fprintf(&b, "- %s: %s\n", f.Query, f.Reasoning)
		}
		context = b.String()
	}

	return fmt.Sprintf(`Analyze these YouTube search results for the song: %q

Results (numbered from 0):
%s%s
Return ONLY a JSON response in this format:
{
  "query": "search query used",
  "reasoning": "why this result was selected",
  "selected_result_index": N,
  "confidence": 0.XX
}

Prioritize:
1. Official artist/label uploads
2. Exact title match
3. High view count
4. Normal song duration (2-5 min)

Set selected_result_index to the number of the best result, or -1 if no good match found.`, anchor, resultLines(results), context)
}

// strictAnalysisPrompt re-asks with an exact output schema after a response
// that could not be parsed.
func strictAnalysisPrompt(anchor string, results []search.Result) string {
	var summary strings.Builder
	for i, r := range results {
		fmt.Fprintf(&summary, "%d. %s by %s (%ds, %s views)\n",
			i, r.Title, r.Uploader, r.Duration, humanize.Comma(r.ViewCount))
	}

	return fmt.Sprintf(`Find the best match for: %s

Results:
%s
You are a music search result analyzer. Select the best match for the requested song.

Return ONLY valid JSON in exactly this format: {"query": "search query", "reasoning": "explanation", "selected_result_index": 0, "confidence": 0.8}. Use -1 for selected_result_index if no good match.`, anchor, summary.String())
}
