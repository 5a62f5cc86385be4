package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync"

	"github.com/AlexTLDR/intltel/internal/config"
	"github.com/AlexTLDR/intltel/internal/database"
	"github.com/AlexTLDR/intltel/internal/logger"
	"github.com/AlexTLDR/intltel/internal/phone"
	"github.com/joho/godotenv"
	"github.com/nyaruka/phonenumbers"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

type summary struct {
	total     int
	updated   int
	failed    int
	unchanged int
}

// renormalizer re-runs the phone normalisation over stored submissions.
type renormalizer struct {
	db         *database.DB
	registry   *phone.Registry
	normalizer *phone.Normalizer
	workers    int
	dryRun     bool
}

// normalize recomputes the phone data of one submission from its country
// and raw input.
func (n *renormalizer) normalize(sub database.Submission) (database.PhoneUpdate, error) {
	country, ok := n.registry.FindByISO2(sub.CountryISO2)
	if !ok {
		return database.PhoneUpdate{}, fmt.Errorf("submission %d: unknown country %q", sub.ID, sub.CountryISO2)
	}

	state := n.normalizer.Select(phone.State{}, country)
	_, res := n.normalizer.OnPhoneNumberChange(state, sub.PhoneRaw)

	update := database.PhoneUpdate{
		PhoneFull:   res.FullNumber,
		CountryISO2: country.ISO2,
	}
	if res.ParseSucceeded {
		plan := n.normalizer.Plan()
		update.PhoneFull = plan.Format(res.Number(), phonenumbers.E164)
		update.NationalNumber = int64(res.NationalNumber)
		update.Valid = plan.IsValid(res.Number())
	}
	return update, nil
}

func changed(sub database.Submission, u database.PhoneUpdate) bool {
	return sub.PhoneFull != u.PhoneFull ||
		sub.NationalNumber != u.NationalNumber ||
		sub.CountryISO2 != u.CountryISO2 ||
		sub.Valid != u.Valid
}

// run processes every submission and returns the summary together with
// all per-row failures combined.
func (n *renormalizer) run(ctx context.Context) (summary, error) {
	submissions, err := n.db.GetAllSubmissions(ctx)
	if err != nil {
		return summary{}, err
	}

	var (
		mu   sync.Mutex
		sum  = summary{total: len(submissions)}
		errs error
	)
	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		sum.failed++
		errs = multierr.Append(errs, err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(n.workers)

	for _, sub := range submissions {
		g.Go(func() error {
			update, err := n.normalize(sub)
			if err != nil {
				fail(err)
				return nil
			}

			if !changed(sub, update) {
				mu.Lock()
				sum.unchanged++
				mu.Unlock()
				return nil
			}

			if !n.dryRun {
				if err := n.db.UpdateSubmissionPhone(ctx, sub.ID, update); err != nil {
					fail(fmt.Errorf("submission %d: %w", sub.ID, err))
					return nil
				}
			}

			logger.Info().
				Int64("id", sub.ID).
				Str("from", sub.PhoneFull).
				Str("to", update.PhoneFull).
				Bool("valid", update.Valid).
				Msg("updated phone")

			mu.Lock()
			sum.updated++
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return sum, err
	}
	return sum, errs
}

func main() {
	workers := flag.Int("workers", 4, "number of concurrent workers")
	dryRun := flag.Bool("dry-run", false, "report changes without writing them")
	flag.Parse()

	_ = godotenv.Overload()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Init(cfg.Logger)

	ctx := context.Background()

	registry, err := phone.LoadRegistry()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load country dataset")
	}

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	n := &renormalizer{
		db:         db,
		registry:   registry,
		normalizer: phone.NewNormalizer(phone.LibPlan{}, phone.WithLogger(logger.Component("phone"))),
		workers:    max(*workers, 1),
		dryRun:     *dryRun,
	}

	sum, err := n.run(ctx)
	for _, e := range multierr.Errors(err) {
		logger.Warn().Err(e).Msg("failed to normalize submission")
	}

	fmt.Printf("\nSummary:\n")
	fmt.Printf("  Total: %d\n", sum.total)
	fmt.Printf("  Updated: %d\n", sum.updated)
	fmt.Printf("  Failed: %d\n", sum.failed)
	fmt.Printf("  Unchanged: %d\n", sum.unchanged)

	if sum.failed > 0 {
		_ = db.Close()
		os.Exit(1)
	}
}
