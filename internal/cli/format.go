package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/evcraddock/biens/internal/bien"
	"github.com/evcraddock/biens/internal/email"
)

// printJSON marshals v as indented JSON and writes it to w.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printBienSummary prints a single listing in text format.
func printBienSummary(w io.Writer, b *bien.Bien) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Bien %s\n", b.Ref)
	fmt.Fprintf(&sb, "  Nom:       %s\n", b.Nom)
	fmt.Fprintf(&sb, "  Status:    %s\n", b.Status)
	if b.TypeBien != "" {
		fmt.Fprintf(&sb, "  Type:      %s\n", b.TypeBien)
	}
	if b.Localisation != "" {
		fmt.Fprintf(&sb, "  Location:  %s\n", b.Localisation)
	}
	fmt.Fprintf(&sb, "  Price:     %s €\n", email.FormatAmount(b.Prix))
	if b.Superficie > 0 {
		fmt.Fprintf(&sb, "  Area:      %g m²\n", b.Superficie)
	}
	if b.Pieces > 0 {
		fmt.Fprintf(&sb, "  Rooms:     %d\n", b.Pieces)
	}
	if b.Description != "" {
		fmt.Fprintf(&sb, "  About:     %s\n", truncate(b.Description, 70))
	}
	for i, img := range b.Gallery {
		fmt.Fprintf(&sb, "  Image %d:   %s\n", i, img)
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// printBienTable prints one page of listings as a formatted table.
func printBienTable(w io.Writer, page *bien.Page) error {
	if len(page.Items) == 0 {
		_, err := fmt.Fprintln(w, "No listings found.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "REF\tNOM\tTYPE\tLOCATION\tPRICE\tAREA\tSTATUS"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(tw, "---\t---\t----\t--------\t-----\t----\t------"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}

	for _, b := range page.Items {
		area := "-"
		if b.Superficie > 0 {
			area = fmt.Sprintf("%g m²", b.Superficie)
		}
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s €\t%s\t%s\n",
			b.Ref, truncate(b.Nom, 30), orDash(b.TypeBien), truncate(orDash(b.Localisation), 24),
			email.FormatAmount(b.Prix), area, b.Status); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	more := ""
	if page.HasMore {
		more = " (more pages available)"
	}
	_, err := fmt.Fprintf(w, "\nShowing %d listings%s\n", len(page.Items), more)
	return err
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// truncate shortens a string to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
