package identity

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"agentswarm.treasury/internal/persistence"
	"agentswarm.treasury/internal/walletledger"
	"agentswarm.treasury/pkg/logger"
)

// registrationThrottle is the fixed delay between any two API calls; the
// collaborator identity service rate-limits and the core never fans out in
// parallel.
const registrationThrottle = 2 * time.Second

// sleep is a var-seam over time.Sleep so tests can exercise Run without
// incurring the real throttle delay.
var sleep = time.Sleep

// Registrar drives the two-step registration flow for every (agent, network)
// pair, persisting progress to a journal after each step so a crash leaves a
// resumable, idempotent trail.
type Registrar struct {
	Client  *Client
	Journal *persistence.IdentityJournal
}

func NewRegistrar(client *Client, journal *persistence.IdentityJournal) *Registrar {
	return &Registrar{Client: client, Journal: journal}
}

// Run walks every agent in manifest against every network, skipping pairs the
// journal already marks successful unless opts.Force is set.
func (r *Registrar) Run(ctx context.Context, manifest *walletledger.Manifest, networks []string, opts RunOptions) (*Report, error) {
	log := logger.GetLogger()
	report := &Report{}

	first := true
	for _, w := range manifest.Wallets {
		for _, network := range networks {
			if !first {
				sleep(registrationThrottle)
			}
			first = false

			if !opts.Force && r.Journal.Status(w.Address, network) == persistence.StatusSuccess {
				report.Workers.Existing++
				report.ERC8004.Existing++
				continue
			}

			if err := r.registerOne(ctx, w, network, opts); err != nil {
				log.Error("identity registration step failed",
					zap.String("address", w.Address), zap.String("network", network), zap.Error(err))
				return report, err
			}
			r.tally(report, w.Address, network)
		}
	}

	if opts.ReportDir != "" {
		path := persistence.TimestampedReportPath(opts.ReportDir, "registrar", time.Now())
		if err := persistence.WriteJSON(path, report); err != nil {
			return report, fmt.Errorf("identity: writing report: %w", err)
		}
		log.Info("registrar report written", zap.String("path", path))
	}

	return report, nil
}

func (r *Registrar) registerOne(ctx context.Context, w walletledger.WalletEntry, network string, opts RunOptions) error {
	rec := r.Journal.Get(w.Address, w.Name, w.Index, string(w.Type))

	workerResult, err := r.Client.RegisterWorker(ctx, w.Address, w.Name)
	if err != nil {
		return r.Journal.Put(w.Address, network, failureRecord(err))
	}
	if workerResult.ExecutorID != "" {
		rec.ExecutorID = workerResult.ExecutorID
		if err := r.Journal.Flush(); err != nil {
			return err
		}
	}

	agentURI := fmt.Sprintf(opts.AgentURITemplate, w.Address)
	metadata := []MetadataEntry{
		{Key: "name", Value: w.Name},
		{Key: "wallet_type", Value: string(w.Type)},
	}

	repResult, err := r.Client.RegisterReputation(ctx, network, agentURI, opts.RecipientAddress, metadata)
	if err != nil {
		return r.Journal.Put(w.Address, network, failureRecord(err))
	}

	status := persistence.StatusSuccess
	recErr := ""
	if !repResult.Success {
		if repResult.AlreadyExisted {
			status = persistence.StatusAlreadyRegistered
		} else {
			status = persistence.StatusFailed
			recErr = repResult.Error
		}
	}

	return r.Journal.Put(w.Address, network, persistence.RegistrationRecord{
		AgentID:      repResult.AgentID,
		Transaction:  repResult.Transaction,
		RegisteredAt: time.Now().UTC(),
		Status:       status,
		Error:        recErr,
	})
}

func failureRecord(err error) persistence.RegistrationRecord {
	return persistence.RegistrationRecord{
		RegisteredAt: time.Now().UTC(),
		Status:       persistence.StatusFailed,
		Error:        err.Error(),
	}
}

func (r *Registrar) tally(report *Report, address, network string) {
	switch r.Journal.Status(address, network) {
	case persistence.StatusSuccess:
		report.Workers.Registered++
		report.ERC8004.Registered++
	case persistence.StatusAlreadyRegistered:
		report.Workers.Existing++
		report.ERC8004.Existing++
	case persistence.StatusFailed:
		report.Workers.Failed++
		report.ERC8004.Failed++
	}
}
