package room

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"

	"github.com/Arionyxx/cinesync/internal/playback"
	"github.com/Arionyxx/cinesync/internal/repository/room"
	"github.com/Arionyxx/cinesync/pkg/ytvideo"
)

type SetSourceParams struct {
	Kind     string
	URL      string
	SenderID string
	RoomID   string
}

type SetSourceResponse struct {
	Source   Source
	Playback playback.State
	Conns    []*websocket.Conn
}

// SetSource swaps the room's video and restarts playback from zero; a source
// change never resumes a prior position.
func (s *service) SetSource(ctx context.Context, params *SetSourceParams) (SetSourceResponse, error) {
	if params.URL == "" {
		return SetSourceResponse{}, fmt.Errorf("%w: url is required", ErrInvalidPayload)
	}

	source := Source{
		Kind: params.Kind,
		URL:  params.URL,
	}

	switch params.Kind {
	case SourceKindYouTube:
		videoID, title, err := s.resolveYouTubeSource(ctx, params.URL)
		if err != nil {
			return SetSourceResponse{}, err
		}

		source.VideoID = videoID
		source.Title = title
	case SourceKindFile:
	default:
		return SetSourceResponse{}, fmt.Errorf("%w: unsupported source kind %q", ErrInvalidPayload, params.Kind)
	}

	if err := s.checkIsHost(ctx, params.RoomID, params.SenderID); err != nil {
		return SetSourceResponse{}, err
	}

	unlock := s.lockRoom(params.RoomID)
	defer unlock()

	if err := s.roomRepo.SetSource(ctx, &room.SetSourceParams{
		Kind:    source.Kind,
		URL:     source.URL,
		VideoID: source.VideoID,
		Title:   source.Title,
		RoomID:  params.RoomID,
	}); err != nil {
		return SetSourceResponse{}, fmt.Errorf("failed to set source: %w", mapRepoErr(err))
	}

	state := playback.NewPausedState(s.now())
	if err := s.roomRepo.SetPlayer(ctx, &room.SetPlayerParams{
		State:  state,
		RoomID: params.RoomID,
	}); err != nil {
		return SetSourceResponse{}, fmt.Errorf("failed to reset player: %w", mapRepoErr(err))
	}

	conns, err := s.getConnsByRoomID(ctx, params.RoomID)
	if err != nil {
		return SetSourceResponse{}, err
	}

	s.logger.InfoContext(ctx, "source changed",
		"room_id", params.RoomID,
		"kind", source.Kind,
		"video_id", source.VideoID,
	)

	return SetSourceResponse{
		Source:   source,
		Playback: state,
		Conns:    conns,
	}, nil
}

// resolveYouTubeSource extracts the canonical video id and fetches the title
// best-effort; a metadata failure never blocks the source change.
func (s *service) resolveYouTubeSource(ctx context.Context, url string) (string, string, error) {
	videoID, err := ytvideo.ParseVideoID(url)
	if err != nil {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidPayload, err)
	}

	var title string
	if data, err := s.getVideoData(videoID); err != nil {
		s.logger.WarnContext(ctx, "failed to fetch video metadata", "video_id", videoID, "error", err)
	} else {
		title = data.Title
	}

	return videoID, title, nil
}
