// Command contentplan prints a generated posting plan for the next days.
// It runs the content generator directly, without the studio service.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"estatecast/pkg/contentgen"
	"estatecast/pkg/domain"
)

func main() {
	days := flag.Int("days", 30, "number of days to plan (1-90)")
	platform := flag.String("platform", "instagram", "target platform (instagram or facebook)")
	withImages := flag.Bool("images", false, "include image prompts")
	asJSON := flag.Bool("json", false, "emit the plan as JSON instead of a table")
	flag.Parse()

	if *days < 1 || *days > 90 {
		exitErr(fmt.Errorf("days must be between 1 and 90, got %d", *days))
	}
	parsed, ok := domain.ParsePlatform(*platform)
	if !ok {
		exitErr(fmt.Errorf("unknown platform %q (want instagram or facebook)", *platform))
	}

	entries := contentgen.New().Calendar(*days, parsed)

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(entries); err != nil {
			exitErr(err)
		}
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tDAY\tCATEGORY\tTIME\tSEO\tENG\tTAGS\tBODY")
	for _, entry := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			entry.Date.Format("2006-01-02"),
			entry.Weekday,
			entry.Content.Category,
			entry.Content.PostingTime.Format("15:04"),
			entry.Content.SEOScore,
			entry.Content.EngagementScore,
			len(entry.Content.Hashtags),
			firstLine(entry.Content.Body),
		)
	}
	if err := w.Flush(); err != nil {
		exitErr(err)
	}

	fmt.Printf("\n%d posts planned over %d days (%s)\n", len(entries), *days, parsed)

	if *withImages {
		fmt.Println("\nImage prompts:")
		for _, entry := range entries {
			fmt.Printf("  %s: %s\n", entry.Date.Format("2006-01-02"), entry.Content.ImagePrompt)
		}
	}
}

func firstLine(body string) string {
	line := body
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	const max = 60
	if len(line) > max {
		return line[:max-3] + "..."
	}
	return line
}

func exitErr(err error) {
	fmt.Fprintln(os.Stderr, err.Error())
	os.Exit(1)
}
