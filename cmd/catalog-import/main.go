package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/tally/internal/backend"
	"github.com/MrJamesThe3rd/tally/internal/catalog"
	"github.com/MrJamesThe3rd/tally/internal/config"
)

func main() {
	var (
		file   = flag.String("file", "", "CSV file with Name, Description, Price, Image and Category columns")
		dryRun = flag.Bool("dry-run", false, "parse and print the products without writing them")
	)

	flag.Parse()

	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*file, *dryRun); err != nil {
		slog.Error("catalog import failed", "file", *file, "error", err)
		os.Exit(1)
	}
}

func run(path string, dryRun bool) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	if dryRun {
		products, charset, err := catalog.NewImporter(nil, nil).Parse(f)
		if err != nil {
			return err
		}

		slog.Info("parsed catalog", "charset", charset, "products", len(products))

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tCATEGORY\tPRICE")

		for _, p := range products {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Name, p.Category, p.Price.StringFixed(2))
		}

		return tw.Flush()
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx := context.Background()

	b, err := backend.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	res, err := catalog.NewImporter(b.Store, slog.Default()).Import(ctx, f)
	if err != nil {
		return err
	}

	fmt.Printf("imported %d products and %d new categories (%s)\n", res.Products, res.Categories, res.Charset)

	return nil
}
