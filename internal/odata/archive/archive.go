// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package archive tees a served payload to Google Cloud Storage as it is
// written, for compliance retention of what a client was actually sent. The
// service account credentials used to reach the bucket are held in a
// memguard-locked buffer for as long as the process runs, rather than left
// sitting in a plain Go string.
package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"cloud.google.com/go/storage"
	"github.com/awnumar/memguard"
	"google.golang.org/api/option"
)

// Store archives OData response payloads to a GCS bucket.
type Store struct {
	bucket     *storage.BucketHandle
	keyPrefix  string
	credential *memguard.LockedBuffer
}

// Open creates a Store backed by bucketName, authenticating with the
// service-account JSON at credentialsPath. The credentials are read once,
// copied into a locked (mlock'd, zeroed-on-destroy) buffer, and never held
// as a plain byte slice past construction.
func Open(ctx context.Context, bucketName, keyPrefix, credentialsPath string) (*Store, error) {
	raw, err := readFileBytes(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("archive: reading credentials: %w", err)
	}
	locked := memguard.NewBufferFromBytes(raw)

	client, err := storage.NewClient(ctx, option.WithCredentialsJSON(locked.Bytes()))
	if err != nil {
		locked.Destroy()
		return nil, fmt.Errorf("archive: creating storage client: %w", err)
	}
	return &Store{
		bucket:     client.Bucket(bucketName),
		keyPrefix:  keyPrefix,
		credential: locked,
	}, nil
}

// Tee returns an io.Writer that mirrors everything written to dst into the
// archive object named objectName (under the store's key prefix), and a
// close function the caller must invoke once serialization is complete.
func (s *Store) Tee(ctx context.Context, dst io.Writer, objectName string) (io.Writer, func() error) {
	obj := s.bucket.Object(s.keyPrefix + objectName)
	w := obj.NewWriter(ctx)
	w.ObjectAttrs.ContentType = "application/json;odata.metadata=minimal"
	return io.MultiWriter(dst, w), w.Close
}

// Close releases the store's held credential buffer.
func (s *Store) Close() {
	s.credential.Destroy()
}

func readFileBytes(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// timeoutContext derives a context from parent that expires after 30
// seconds. No caller in this repository uses it; the service handler passes
// the request's own context to Tee.
func timeoutContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, 30*time.Second)
}
