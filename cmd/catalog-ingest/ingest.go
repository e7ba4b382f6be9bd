package main

import (
	"bufio"
	"context"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/arkarz/perfumeria/internal/domain/product"
)

const progressEvery = 100_000

// record is one product line of a supplier feed.
type record struct {
	ID          string
	Name        string
	BrandID     string
	Gender      string
	Size        string
	Price       decimal.Decimal
	Description string
	Image       string
	Stock       int
}

func (r *record) decode(d *jx.Decoder) error {
	return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "id":
			r.ID, err = d.Str()
		case "nombre":
			r.Name, err = d.Str()
		case "marca":
			r.BrandID, err = d.Str()
		case "sexo":
			r.Gender, err = d.Str()
		case "tamano":
			r.Size, err = d.Str()
		case "descripcion":
			r.Description, err = d.Str()
		case "imagen":
			r.Image, err = d.Str()
		case "precio":
			r.Price, err = decodePrice(d)
		case "stock":
			r.Stock, err = d.Int()
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		return nil
	})
}

func decodePrice(d *jx.Decoder) (decimal.Decimal, error) {
	if d.Next() == jx.String {
		s, err := d.Str()
		if err != nil {
			return decimal.Decimal{}, err
		}
		return decimal.NewFromString(s)
	}
	n, err := d.Num()
	if err != nil {
		return decimal.Decimal{}, err
	}
	return decimal.NewFromString(n.String())
}

// merge folds src into r: stock adds up, the lower price wins and empty
// descriptive fields are filled.
func (r *record) merge(src record) {
	r.Stock += src.Stock
	if src.Price.LessThan(r.Price) {
		r.Price = src.Price
	}
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	fill(&r.Name, src.Name)
	fill(&r.BrandID, src.BrandID)
	fill(&r.Gender, src.Gender)
	fill(&r.Size, src.Size)
	fill(&r.Description, src.Description)
	fill(&r.Image, src.Image)
}

func (r *record) product() *product.Product {
	return &product.Product{
		ID:          r.ID,
		Name:        r.Name,
		Brand:       product.BrandRef{ID: r.BrandID},
		Gender:      product.Gender(r.Gender),
		Size:        product.Size(r.Size),
		Price:       r.Price,
		Description: r.Description,
		Image:       r.Image,
		Stock:       r.Stock,
		Active:      true,
	}
}

type upserter interface {
	UpsertProduct(ctx context.Context, p *product.Product) error
}

type summary struct {
	written int64
	merged  int64
	skipped int64
}

// ingester runs the two-pass feed merge. A nil out means dry run.
type ingester struct {
	feeds    []string
	capacity uint
	fpr      float64
	out      upserter

	written, merged, skipped atomic.Int64
}

func (in *ingester) run(ctx context.Context) (summary, error) {
	for _, f := range in.feeds {
		if _, err := os.Stat(f); err != nil {
			return summary{}, errors.Wrapf(err, "check feed %s", f)
		}
	}

	slog.Info("pass 1: building bloom filters", slog.Int("feeds", len(in.feeds)))
	filters, err := in.buildFilters(ctx)
	if err != nil {
		return summary{}, errors.Wrap(err, "build bloom filters")
	}

	slog.Info("pass 2: writing unique products and collecting duplicates")
	candidates, err := in.scanFeeds(ctx, filters)
	if err != nil {
		return summary{}, errors.Wrap(err, "scan feeds")
	}

	// Feed order decides which descriptive fields win.
	byID := make(map[string]*record)
	var order []string
	for _, recs := range candidates {
		for _, r := range recs {
			if m, ok := byID[r.ID]; ok {
				m.merge(r)
				continue
			}
			rec := r
			byID[r.ID] = &rec
			order = append(order, r.ID)
		}
	}

	slog.Info("writing merged products", slog.Int("count", len(order)))
	for _, id := range order {
		if err := in.write(ctx, byID[id]); err != nil {
			return summary{}, err
		}
		in.merged.Add(1)
	}

	return summary{
		written: in.written.Load(),
		merged:  in.merged.Load(),
		skipped: in.skipped.Load(),
	}, nil
}

// buildFilters creates one bloom filter of product ids per feed, concurrently.
func (in *ingester) buildFilters(ctx context.Context) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(in.feeds))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range in.feeds {
		g.Go(func() error {
			filter := bloom.NewWithEstimates(in.capacity, in.fpr)
			var count int
			if err := streamFeed(ctx, path, func(r record) error {
				filter.AddString(r.ID)
				if count++; count%progressEvery == 0 {
					slog.Info("pass 1 progress", slog.Int("feed", i+1), slog.Int("products", count))
				}
				return nil
			}); err != nil {
				return errors.Wrapf(err, "feed %d", i+1)
			}

			slog.Info("pass 1 complete", slog.Int("feed", i+1), slog.Int("products", count))
			filters[i] = filter
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return filters, nil
}

// scanFeeds writes every product that no other feed may list and returns
// the possible duplicates of each feed in line order.
func (in *ingester) scanFeeds(ctx context.Context, filters []*bloom.BloomFilter) ([][]record, error) {
	candidates := make([][]record, len(in.feeds))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range in.feeds {
		g.Go(func() error {
			var found []record
			if err := streamFeed(ctx, path, func(r record) error {
				for j, f := range filters {
					if j != i && f.TestString(r.ID) {
						found = append(found, r)
						return nil
					}
				}
				return in.write(ctx, &r)
			}); err != nil {
				return errors.Wrapf(err, "feed %d", i+1)
			}

			slog.Info("pass 2 complete", slog.Int("feed", i+1), slog.Int("candidates", len(found)))
			candidates[i] = found
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return candidates, nil
}

// write upserts r. Records the catalog rejects are logged and skipped.
func (in *ingester) write(ctx context.Context, r *record) error {
	if in.out == nil {
		in.written.Add(1)
		return nil
	}

	err := in.out.UpsertProduct(ctx, r.product())
	var invalid *product.InvalidProductError
	switch {
	case err == nil:
		in.written.Add(1)
		return nil
	case errors.As(err, &invalid), errors.Is(err, product.ErrBrandNotFound):
		slog.Warn("skipping product", slog.String("id", r.ID), slog.String("reason", err.Error()))
		in.skipped.Add(1)
		return nil
	default:
		return errors.Wrapf(err, "upsert product %s", r.ID)
	}
}

// streamFeed decodes every non-blank line of a gzip NDJSON feed.
func streamFeed(ctx context.Context, path string, fn func(r record) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	for line := 1; scanner.Scan(); line++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		data := scanner.Bytes()
		if len(data) == 0 {
			continue
		}

		var r record
		if err := r.decode(jx.DecodeBytes(data)); err != nil {
			return errors.Wrapf(err, "%s line %d", path, line)
		}
		if r.ID == "" {
			return errors.Errorf("%s line %d: missing id", path, line)
		}
		if err := fn(r); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}
	return nil
}
