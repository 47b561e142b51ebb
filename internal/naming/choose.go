package naming

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
)

// A score gap of at least this much between the two best candidates is
// treated as a confidence margin; anything closer is genuinely ambiguous.
const autoAcceptMargin = 8

// maxPromptChoices bounds how many candidates an interactive prompt shows.
const maxPromptChoices = 6

// ChooseOptions controls interactive disambiguation. The zero value
// disables prompting entirely.
type ChooseOptions struct {
	// Interactive allows a terminal prompt when the ranked candidates
	// score too close together. Prompting is skipped when no terminal is
	// attached.
	Interactive bool

	// In and Out override the prompt streams; they default to stdin and
	// stdout.
	In  io.Reader
	Out io.Writer

	// isTerminal overrides terminal detection in tests.
	isTerminal func() bool
}

func (o ChooseOptions) terminalAttached() bool {
	if o.isTerminal != nil {
		return o.isTerminal()
	}
	if o.In != nil {
		// A custom reader stands in for a terminal.
		return true
	}
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// ChooseTitle resolves the best title for a disc. The policy is linear,
// first success wins:
//
//  1. the longest parsed title whose human name cleans to something usable
//  2. a disc-level title extracted from the raw scan text
//  3. the scored candidate pool, minus hardware labels, with an
//     interactive tie-break when the top scores are close
//
// Returns the empty string when no component produced a usable title.
// ChooseTitle never fails; malformed input reads as "no candidate".
func ChooseTitle(rawText, driveLabel string, titles []ParsedTitle, opts ChooseOptions) string {
	if len(titles) > 0 {
		sorted := make([]ParsedTitle, len(titles))
		copy(sorted, titles)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Seconds > sorted[j].Seconds
		})
		for _, t := range sorted {
			if cand := Clean(t.Name); cand != "" && !IsNoisy(cand) {
				return cand
			}
		}
	}

	if cand := PickDiscInfoTitle(rawText); cand != "" {
		return cand
	}

	scored := ScoreCandidates(GatherCandidates(rawText, driveLabel, titles))
	filtered := scored[:0]
	for _, sc := range scored {
		if !IsHardwareLabel(sc.Value) {
			filtered = append(filtered, sc)
		}
	}
	if len(filtered) == 0 {
		return ""
	}
	if len(filtered) == 1 || filtered[0].Score >= filtered[1].Score+autoAcceptMargin {
		return filtered[0].Value
	}

	if opts.Interactive && opts.terminalAttached() {
		if choice, ok := promptForChoice(filtered, opts); ok {
			return choice
		}
	}
	return filtered[0].Value
}

// promptForChoice presents the top candidates numbered from 1, plus 0 for
// "none". The second return is false when the selection was invalid or
// reading failed, leaving the caller on the deterministic default.
func promptForChoice(cands []ScoredCandidate, opts ChooseOptions) (string, bool) {
	in := opts.In
	if in == nil {
		in = os.Stdin
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	shown := cands
	if len(shown) > maxPromptChoices {
		shown = shown[:maxPromptChoices]
	}

	fmt.Fprintln(out, "\nAmbiguous disc title candidates:")
	for i, sc := range shown {
		fmt.Fprintf(out, "  %d) %s  (score %d)\n", i+1, sc.Value, sc.Score)
	}
	fmt.Fprintln(out, "  0) None of the above / use fallback")
	fmt.Fprint(out, "Choose correct disc title number (0 to skip): ")

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return "", false
	}
	idx, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		return "", false
	}
	if idx == 0 {
		return "", true
	}
	if idx >= 1 && idx <= len(shown) {
		return shown[idx-1].Value, true
	}
	return "", false
}
