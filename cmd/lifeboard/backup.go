package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/lifeboard/lifeboard/internal/backup"
	"github.com/lifeboard/lifeboard/internal/config"
	"github.com/lifeboard/lifeboard/internal/database"
)

type BackupCmd struct {
	Passphrase string `help:"Passphrase the snapshot is encrypted with." env:"LIFEBOARD_BACKUP_PASSPHRASE" required:""`
	Dir        string `help:"Directory to write the snapshot to when no bucket is configured." default:"backups" env:"LIFEBOARD_BACKUP_DIR"`

	S3Endpoint  string `name:"s3-endpoint" help:"S3-compatible endpoint URL." env:"LIFEBOARD_S3_ENDPOINT"`
	S3Bucket    string `name:"s3-bucket" help:"Bucket to upload snapshots to." env:"LIFEBOARD_S3_BUCKET"`
	S3Region    string `name:"s3-region" help:"Bucket region." default:"auto" env:"LIFEBOARD_S3_REGION"`
	S3AccessKey string `name:"s3-access-key" env:"LIFEBOARD_S3_ACCESS_KEY"`
	S3SecretKey string `name:"s3-secret-key" env:"LIFEBOARD_S3_SECRET_KEY"`
	S3Prefix    string `name:"s3-prefix" help:"Key prefix inside the bucket." env:"LIFEBOARD_S3_PREFIX"`
}

func (c *BackupCmd) destination() (backup.Destination, string) {
	s3cfg := backup.S3Config{
		Endpoint:  c.S3Endpoint,
		Bucket:    c.S3Bucket,
		Region:    c.S3Region,
		AccessKey: c.S3AccessKey,
		SecretKey: c.S3SecretKey,
		Prefix:    c.S3Prefix,
	}
	if s3cfg.Enabled() {
		return backup.NewS3Destination(s3cfg), "s3://" + c.S3Bucket
	}
	return backup.DirDestination{Dir: c.Dir}, c.Dir
}

func (c *BackupCmd) Run(cfg *config.Config) error {
	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	dest, where := c.destination()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	res, err := backup.Run(ctx, db, c.Passphrase, dest, time.Now())
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}
	fmt.Printf("wrote %s (%d bytes) to %s\n", res.Key, res.Size, where)
	return nil
}

type RestoreCmd struct {
	File       string `arg:"" type:"existingfile" help:"Encrypted snapshot to restore."`
	Passphrase string `help:"Passphrase the snapshot was encrypted with." env:"LIFEBOARD_BACKUP_PASSPHRASE" required:""`
	Force      bool   `help:"Replace an existing database file."`
}

func (c *RestoreCmd) Run(cfg *config.Config) error {
	if _, err := os.Stat(cfg.DBPath); err == nil && !c.Force {
		return fmt.Errorf("%s already exists; stop the server and pass --force to replace it", cfg.DBPath)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	sealed, err := os.ReadFile(c.File)
	if err != nil {
		return err
	}
	if err := backup.Restore(context.Background(), sealed, c.Passphrase, cfg.DBPath); err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}
	fmt.Printf("restored %s into %s\n", c.File, cfg.DBPath)
	return nil
}
