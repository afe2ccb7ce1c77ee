package cmd

import (
	"context"

	"github.com/betagouv/grist-core/internal/blob"
	"github.com/betagouv/grist-core/internal/compress"
	"github.com/betagouv/grist-core/internal/config"
	"github.com/betagouv/grist-core/internal/model"
	"github.com/betagouv/grist-core/internal/store"
	"github.com/betagouv/grist-core/internal/transfer"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	transferDocID string
	transferDest  string
)

// transferCmd moves a document's attachments between the internal file store
// and the external object store, waiting for the job to finish.
var transferCmd = &cobra.Command{
	Use:   "transfer",
	Short: "move a document's attachments between storage backends",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		ctx := context.Background()

		dest := blob.Kind(transferDest)
		if dest != blob.Internal && dest != blob.External {
			logrus.Fatalf("destination must be %q or %q", blob.Internal, blob.External)
		}

		db, err := cfg.OpenDB()
		if err != nil {
			logrus.Fatalf("opening database: %v", err)
		}

		internal := blob.NewFileStore(cfg.DataDir, compress.NewGZip())
		external, err := blob.NewS3Store(ctx, blob.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			Prefix:          cfg.S3Prefix,
			UsePathStyle:    cfg.S3PathStyle,
		})
		if err != nil {
			logrus.Fatalf("configuring external store: %v", err)
		}

		orchestrator := transfer.NewOrchestrator(store.NewGormStore(db), internal, external)

		job, err := orchestrator.Start(ctx, transferDocID, dest)
		if err != nil {
			logrus.Fatalf("starting transfer: %v", err)
		}
		logrus.Infof("transfer job %s started for document %s", job.ID, job.DocID)

		orchestrator.Wait()

		job, err = orchestrator.Status(ctx, transferDocID)
		if err != nil {
			logrus.Fatalf("reading transfer status: %v", err)
		}
		if job.Status == model.TransferFailed {
			logrus.Fatalf("transfer failed: %s", job.Error)
		}
		logrus.Infof("transfer done, attachments now %s (%d/%d blobs)", job.Location, job.Copied, job.Total)
	},
}

func init() {
	transferCmd.Flags().StringVarP(&transferDocID, "doc", "d", "", "document id")
	transferCmd.Flags().StringVarP(&transferDest, "to", "t", "external", "destination backend")
	_ = transferCmd.MarkFlagRequired("doc")
}
