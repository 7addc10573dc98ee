package wsl

import (
	"context"
	"strings"

	"github.com/ubuntu/decorate"
)

// catalogHeaderLines is the number of introductory lines the tool emits
// before the distribution table (two lines of usage text, a separator, and
// the column header row). It is a parsing constant tied to the tool's
// current output format: a vendor format change breaks the parser, not the
// surrounding logic.
const catalogHeaderLines = 4

// defaultMarker flags the catalog's recommended entry in the listing.
const defaultMarker = "*"

// DistributionEntry is one parsed row of the installable-distribution
// catalog, in catalog source order.
type DistributionEntry struct {
	Name         string
	FriendlyName string
	Default      bool
}

// AvailableDistributions fetches and parses the installable-distribution
// catalog, preserving source order. It fails with ErrCatalogEmpty when the
// listing produced no output and ErrCatalogNoEntries when no rows survive
// filtering.
func (c *Client) AvailableDistributions(ctx context.Context) (entries []DistributionEntry, err error) {
	defer decorate.OnError(&err, "could not fetch distribution catalog")

	result, err := c.runner.Run(ctx, c.exe, "--list", "--online")
	if err != nil {
		return nil, err
	}
	if err := commandError("list catalog", result); err != nil {
		return nil, err
	}
	if strings.TrimSpace(result.Stdout) == "" {
		return nil, ErrCatalogEmpty
	}

	return parseCatalog(result.Stdout)
}

func parseCatalog(listing string) ([]DistributionEntry, error) {
	lines := strings.Split(listing, "\n")
	if len(lines) <= catalogHeaderLines {
		return nil, ErrCatalogNoEntries
	}

	var entries []DistributionEntry
	for _, line := range lines[catalogHeaderLines:] {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		entry := DistributionEntry{}
		if fields[0] == defaultMarker {
			entry.Default = true
			fields = fields[1:]
		}
		if len(fields) == 0 {
			continue
		}

		entry.Name = fields[0]
		entry.FriendlyName = strings.Join(fields[1:], " ")
		entries = append(entries, entry)
	}

	if len(entries) == 0 {
		return nil, ErrCatalogNoEntries
	}
	return entries, nil
}
