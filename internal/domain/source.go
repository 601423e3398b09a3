package domain

import "context"

// Fetcher retrieves the raw bytes of a tabular or geographic source. A
// failure to retrieve the payload is reported as *FetchError.
type Fetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// JoinPublisher exports the joined records of a map view.
type JoinPublisher interface {
	PublishJoin(ctx context.Context, view string, result JoinResult) error
}
