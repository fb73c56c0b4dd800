package outbound

import "context"

type PublishVideoRequest struct {
	VideoPath string
	RunID     string
}

type PublishVideoResponse struct {
	VideoKey    string
	StoreRegion string
}

// VideoPublisherPort uploads the assembled video to remote storage.
type VideoPublisherPort interface {
	Publish(ctx context.Context, req PublishVideoRequest) (*PublishVideoResponse, error)
}
