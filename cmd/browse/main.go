// Command browse is a terminal client for the partner directory. It pages
// through partners with the same infinite-list and comparison rules the web
// directory uses.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/gartstein/partnerhub/internal/partner/cache"
	"github.com/gartstein/partnerhub/internal/partner/client"
	"github.com/gartstein/partnerhub/internal/partner/comparison"
	e "github.com/gartstein/partnerhub/internal/partner/errors"
	"github.com/gartstein/partnerhub/internal/partner/listing"
	"github.com/gartstein/partnerhub/internal/partner/models"
	"github.com/gartstein/partnerhub/internal/partner/normalize"
	"github.com/gartstein/partnerhub/internal/partner/search"
	"go.uber.org/zap"
)

const usage = `commands:
  search <text>                 set the free-text query
  filter <category> <a,b,...>   set a filter (products, types, pricing, regions, services)
  clear-filters                 drop every filter
  more                          load the next page
  retry                         repeat the last failed request
  compare <id>                  toggle a partner in the comparison
  selected                      show the comparison
  quit`

func main() {
	apiURL := flag.String("api", "http://localhost:8080", "directory API base URL")
	upstreamURL := flag.String("upstream", "", "read the upstream company API directly instead of the directory API")
	debug := flag.Bool("debug", false, "log to stderr")
	flag.Parse()

	logger := zap.NewNop()
	if *debug {
		logger, _ = zap.NewDevelopment()
	}
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	ctx := context.Background()

	var fetcher listing.Fetcher
	var lookup func(ctx context.Context, id string) (*models.Partner, error)
	if *upstreamURL != "" {
		upstream := client.NewUpstream(*upstreamURL, logger)
		partners := cache.New(upstream.Partners, logger, 5*time.Minute)
		fetcher = listing.CacheFetcher{Source: partners, ItemsPerPage: search.ItemsPerPage}
		lookup = upstream.Partner
	} else {
		api := client.New(*apiURL, logger)
		fetcher = listing.APIFetcher{API: api}
		lookup = api.GetPartner
	}

	b := &browser{
		list:    listing.NewController(fetcher, logger),
		compare: comparison.NewManager(ctx, comparison.NewMemoryStore(), logger),
		lookup:  lookup,
		out:     os.Stdout,
	}
	if err := b.run(ctx, os.Stdin); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type browser struct {
	list    *listing.Controller
	compare *comparison.Manager
	lookup  func(ctx context.Context, id string) (*models.Partner, error)
	out     io.Writer
	params  listing.Params
}

func (b *browser) run(ctx context.Context, in io.Reader) error {
	fmt.Fprintln(b.out, usage)
	b.refresh(ctx)

	scanner := bufio.NewScanner(in)
	for fmt.Fprint(b.out, "> "); scanner.Scan(); fmt.Fprint(b.out, "> ") {
		cmd, arg, _ := strings.Cut(strings.TrimSpace(scanner.Text()), " ")
		arg = strings.TrimSpace(arg)
		switch cmd {
		case "":
		case "search":
			b.params.Search = arg
			b.refresh(ctx)
		case "filter":
			category, values, _ := strings.Cut(arg, " ")
			if err := setFilter(&b.params.Filters, category, splitList(values)); err != nil {
				fmt.Fprintln(b.out, err)
				continue
			}
			b.refresh(ctx)
		case "clear-filters":
			b.params.Filters = models.FilterOptions{}
			b.refresh(ctx)
		case "more":
			if ok, err := b.list.LoadMore(ctx); !ok && err == nil {
				fmt.Fprintln(b.out, "nothing more to load")
				continue
			}
			b.render()
		case "retry":
			_ = b.list.Retry(ctx)
			b.render()
		case "compare":
			b.toggle(ctx, arg)
		case "selected":
			b.showComparison(ctx)
		case "quit", "exit":
			return nil
		default:
			fmt.Fprintln(b.out, usage)
		}
	}
	return scanner.Err()
}

func (b *browser) refresh(ctx context.Context) {
	_ = b.list.SetParams(ctx, b.params)
	b.render()
}

func (b *browser) render() {
	state := b.list.Snapshot()
	w := tabwriter.NewWriter(b.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "\tID\tNAME\tTYPE\tPRICING\tLOCATION")
	for _, p := range state.Partners {
		mark := " "
		if b.compare.Contains(p.ID) {
			mark = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", mark, p.ID, p.Name,
			normalize.PartnerTypeLabel(p.ServiceModels),
			normalize.PricingLabel(p.MinimumSpend),
			normalize.LocationSummary(p.Countries))
	}
	_ = w.Flush()

	switch {
	case state.Status == listing.Error && client.IsTransient(state.Err):
		fmt.Fprintln(b.out, "The directory is temporarily unavailable. Type 'retry' to try again.")
	case state.Status == listing.Error:
		fmt.Fprintf(b.out, "Request failed: %v\n", state.Err)
	case state.TotalCount == 0:
		fmt.Fprintln(b.out, "No partners match your search.")
	default:
		fmt.Fprintf(b.out, "showing %d of %d", len(state.Partners), state.TotalCount)
		if state.HasMore {
			fmt.Fprint(b.out, " (type 'more' for the next page)")
		}
		fmt.Fprintln(b.out)
	}
}

func (b *browser) toggle(ctx context.Context, id string) {
	ids, err := b.compare.Toggle(ctx, id)
	switch {
	case errors.Is(err, e.ErrCapacityExceeded):
		fmt.Fprintf(b.out, "You can compare max %d partners at a time.\n", comparison.Limit)
	case err != nil:
		fmt.Fprintln(b.out, err)
	default:
		fmt.Fprintf(b.out, "comparing %d/%d: %s\n", len(ids), comparison.Limit, strings.Join(ids, ", "))
	}
}

func (b *browser) showComparison(ctx context.Context) {
	ids := b.compare.Selection()
	if len(ids) == 0 {
		fmt.Fprintln(b.out, "No partners selected.")
		return
	}
	w := tabwriter.NewWriter(b.out, 0, 4, 2, ' ', 0)
	for _, id := range ids {
		p, err := b.lookup(ctx, id)
		if err != nil {
			fmt.Fprintf(w, "%s\t(unavailable: %v)\n", id, err)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name,
			normalize.PricingLabel(p.MinimumSpend),
			strings.Join(p.FacebookPlatforms, ", "),
			normalize.LocationSummary(p.Countries))
	}
	_ = w.Flush()
}

func setFilter(f *models.FilterOptions, category string, values []string) error {
	switch category {
	case "products":
		f.Products = values
	case "types":
		f.PartnerTypes = values
	case "pricing":
		f.PricingModels = values
	case "regions":
		f.Regions = values
	case "services":
		f.KeyServices = values
	default:
		return fmt.Errorf("unknown filter %q", category)
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
