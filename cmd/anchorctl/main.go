package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dgallion1/reanchor/internal/parser"
	"github.com/dgallion1/reanchor/internal/resolve"
	"github.com/dgallion1/reanchor/internal/selector"
	"github.com/dgallion1/reanchor/internal/textpos"
	"github.com/disiqueira/gotree/v3"
	"github.com/spf13/cobra"
	"golang.org/x/net/html"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "anchorctl",
		Short: "Anchor text annotations in documents",
		Long: `anchorctl builds and resolves robust text annotations.

An annotation is stored as a set of selectors (structural path, character
offsets, quoted text with context) and re-anchored against the current
version of a document, surviving edits that move or slightly alter the
annotated passage.`,
		Version: version,
	}

	rootCmd.AddCommand(buildCmd())
	rootCmd.AddCommand(anchorCmd())
	rootCmd.AddCommand(treeCmd())
	rootCmd.AddCommand(textCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// parseDocument loads and parses a document file into a DOM tree.
func parseDocument(path string) (*parser.Document, error) {
	p, err := parser.ForFile(path)
	if err != nil {
		return nil, err
	}
	if pdf, ok := p.(*parser.PDFParser); ok {
		pdf.FallbackPdftotext = true
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer f.Close()
	return p.Parse(f, path)
}

func buildCmd() *cobra.Command {
	var start, end int
	var id string

	cmd := &cobra.Command{
		Use:   "build <document>",
		Short: "Build selectors for a text range",
		Long: `Build a location (range, position and quote selectors) describing
the text between two character offsets in a document's text stream.

Example:
  anchorctl build report.md --start 120 --end 158
  anchorctl build report.md --start 120 --end 158 --id intro-note > loc.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := parseDocument(args[0])
			if err != nil {
				return err
			}
			if start < 0 || end < 0 {
				return fmt.Errorf("offsets must be non-negative")
			}
			if start > end {
				start, end = end, start
			}

			positions, err := textpos.ResolveOffsets(doc.Root, []int{start, end})
			if err != nil {
				return fmt.Errorf("resolve offsets: %w", err)
			}
			loc, err := selector.Build(doc.Root, selector.Selection{
				StartNode:   positions[0].Node,
				StartOffset: positions[0].Local,
				EndNode:     positions[1].Node,
				EndOffset:   positions[1].Local,
			})
			if err != nil {
				return fmt.Errorf("build selectors: %w", err)
			}
			loc.ID = id

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(loc)
		},
	}

	cmd.Flags().IntVar(&start, "start", 0, "start offset in the text stream")
	cmd.Flags().IntVar(&end, "end", 0, "end offset in the text stream")
	cmd.Flags().StringVar(&id, "id", "", "identifier to assign to the location")
	return cmd
}

func anchorCmd() *cobra.Command {
	var locationsPath string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "anchor <document>",
		Short: "Re-anchor stored locations against a document",
		Long: `Resolve one or more stored locations against the current version
of a document. Locations are read from a JSON file holding either a single
location object or an array of them.

Example:
  anchorctl anchor report.md --locations loc.json
  anchorctl anchor report-v2.md --locations locs.json --verbose`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := parseDocument(args[0])
			if err != nil {
				return err
			}
			locations, err := readLocations(locationsPath)
			if err != nil {
				return err
			}

			logLevel := slog.LevelWarn
			if verbose {
				logLevel = slog.LevelDebug
			}
			log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
			resolver := resolve.New(log)

			type outcome struct {
				LocationID string `json:"location_id,omitempty"`
				Method     string `json:"method,omitempty"`
				Start      int    `json:"start"`
				End        int    `json:"end"`
				Text       string `json:"text,omitempty"`
				Error      string `json:"error,omitempty"`
			}

			failed := 0
			outcomes := make([]outcome, 0, len(locations))
			for _, loc := range locations {
				anchor, err := resolver.Resolve(doc.Root, loc)
				if err != nil {
					failed++
					outcomes = append(outcomes, outcome{LocationID: loc.ID, Error: err.Error()})
					continue
				}
				startOff, err := textpos.PositionToOffset(doc.Root, anchor.Span.Start.Node, anchor.Span.Start.Local)
				if err != nil {
					return fmt.Errorf("map anchor: %w", err)
				}
				endOff, err := textpos.PositionToOffset(doc.Root, anchor.Span.End.Node, anchor.Span.End.Local)
				if err != nil {
					return fmt.Errorf("map anchor: %w", err)
				}
				outcomes = append(outcomes, outcome{
					LocationID: loc.ID,
					Method:     string(anchor.Method),
					Start:      startOff,
					End:        endOff,
					Text:       anchor.Text(),
				})
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(outcomes); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d locations failed to anchor", failed, len(locations))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&locationsPath, "locations", "", "JSON file with locations to resolve (required)")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "log per-selector resolution attempts")
	cmd.MarkFlagRequired("locations")
	return cmd
}

func treeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree <document>",
		Short: "Print a document's element structure",
		Long: `Print the element tree of a parsed document, annotating each
element with its text length. Useful for inspecting the structural paths
that range selectors address.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := parseDocument(args[0])
			if err != nil {
				return err
			}
			root := gotree.New(elementLabel(doc.Root))
			addChildren(root, doc.Root)
			fmt.Fprint(cmd.OutOrStdout(), root.Print())
			return nil
		},
	}
}

func textCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "text <document>",
		Short: "Print a document's text stream",
		Long: `Print the concatenated text content of a document, the stream
that position and quote selectors address by character offset.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := parseDocument(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), textpos.Stream(doc.Root))
			return nil
		},
	}
}

func addChildren(t gotree.Tree, node *html.Node) {
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type != html.ElementNode {
			continue
		}
		addChildren(t.Add(elementLabel(child)), child)
	}
}

func elementLabel(node *html.Node) string {
	name := node.Data
	if node.Type == html.DocumentNode {
		name = "#document"
	}
	return fmt.Sprintf("%s (%d chars)", name, textpos.StreamLength(node))
}

func readLocations(path string) ([]selector.Location, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read locations: %w", err)
	}
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var locations []selector.Location
		if err := json.Unmarshal(data, &locations); err != nil {
			return nil, fmt.Errorf("parse locations: %w", err)
		}
		return locations, nil
	}
	var loc selector.Location
	if err := json.Unmarshal(data, &loc); err != nil {
		return nil, fmt.Errorf("parse location: %w", err)
	}
	return []selector.Location{loc}, nil
}
