package room

import (
	"context"
	"time"

	"github.com/Arionyxx/cinesync/internal/repository/room"
)

// StartReaper periodically evicts pull-mode participants whose last poll is
// older than timeout. Push-mode members hold a live conn and are skipped;
// their cleanup happens on transport disconnect. Blocks until ctx is done.
func (s *service) StartReaper(ctx context.Context, interval, timeout time.Duration) {
	s.logger.InfoContext(ctx, "reaper started", "interval", interval, "timeout", timeout)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "reaper stopped")
			return
		case <-ticker.C:
			s.reap(ctx, timeout)
		}
	}
}

func (s *service) reap(ctx context.Context, timeout time.Duration) {
	roomIDs, err := s.roomRepo.GetRoomIDs(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "reaper failed to list rooms", "error", err)
		return
	}

	threshold := s.now().Add(-timeout).UnixMilli()

	for _, roomID := range roomIDs {
		stale, err := s.findStaleParticipants(ctx, roomID, threshold)
		if err != nil {
			s.logger.WarnContext(ctx, "reaper failed to inspect room", "room_id", roomID, "error", err)
			continue
		}

		for _, participantID := range stale {
			s.logger.InfoContext(ctx, "reaping stale participant",
				"room_id", roomID,
				"participant_id", participantID,
			)

			if _, err := s.DisconnectMember(ctx, &DisconnectMemberParams{
				ParticipantID: participantID,
				RoomID:        roomID,
			}); err != nil {
				s.logger.WarnContext(ctx, "reaper failed to disconnect participant",
					"room_id", roomID,
					"participant_id", participantID,
					"error", err,
				)
			}
		}
	}
}

func (s *service) findStaleParticipants(ctx context.Context, roomID string, threshold int64) ([]string, error) {
	participantIDs, err := s.roomRepo.GetParticipantIDs(ctx, roomID)
	if err != nil {
		return nil, err
	}

	var stale []string
	for _, participantID := range participantIDs {
		if _, err := s.connRepo.GetConn(participantID); err == nil {
			continue
		}

		participant, err := s.roomRepo.GetParticipant(ctx, &room.GetParticipantParams{
			ParticipantID: participantID,
			RoomID:        roomID,
		})
		if err != nil {
			continue
		}

		if participant.LastSeenAt < threshold {
			stale = append(stale, participantID)
		}
	}

	return stale, nil
}
