package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"duo-journal-backend/internal/models"
	"duo-journal-backend/internal/repository"
	"duo-journal-backend/internal/timeline"

	"github.com/rs/zerolog/log"
)

const (
	coupleCodeBytes  = 4
	maxCodeAttempts  = 10
	maxCoupleMembers = 2
)

// Membership is the couple context of a logged-in user
type Membership struct {
	CoupleID  int64
	Roles     timeline.Roles
	Members   []models.Member
	PartnerID int64
}

// CoupleService handles couple creation, joining and role resolution
type CoupleService struct {
	couples CoupleStore
	users   UserStore
	events  EventSink
}

// NewCoupleService creates a new couple service
func NewCoupleService(couples CoupleStore, users UserStore, events EventSink) *CoupleService {
	return &CoupleService{
		couples: couples,
		users:   users,
		events:  events,
	}
}

// JoinCoupleRequest represents a request to join a couple by code
type JoinCoupleRequest struct {
	Code string `json:"code"`
}

// CoupleStatus describes a user's couple from their point of view
type CoupleStatus struct {
	Couple      *models.Couple  `json:"couple"`
	Members     []models.Member `json:"members"`
	Roles       timeline.Roles  `json:"roles"`
	PartnerName string          `json:"partner_name"`
	Complete    bool            `json:"complete"`
}

// generateCode returns a random lowercase hex join code
func generateCode() (string, error) {
	buf := make([]byte, coupleCodeBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// GenerateUniqueCode generates a join code not used by another couple
func (s *CoupleService) GenerateUniqueCode(ctx context.Context) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code, err := generateCode()
		if err != nil {
			return "", err
		}
		exists, err := s.couples.CodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check code existence: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("failed to generate unique code after %d attempts", maxCodeAttempts)
}

// CreateCouple creates a couple with the user as its first member
func (s *CoupleService) CreateCouple(ctx context.Context, userID int64) (*models.Couple, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code, err := s.GenerateUniqueCode(ctx)
		if err != nil {
			return nil, err
		}
		couple, err := s.couples.CreateForUser(ctx, code, userID)
		if errors.Is(err, repository.ErrCodeTaken) {
			// lost a race for the code
			continue
		}
		if err != nil {
			return nil, err
		}

		log.Info().
			Int64("user_id", userID).
			Int64("couple_id", couple.ID).
			Msg("Couple created")
		return couple, nil
	}
	return nil, fmt.Errorf("failed to create couple after %d attempts", maxCodeAttempts)
}

// JoinCouple adds the user to the couple identified by code
func (s *CoupleService) JoinCouple(ctx context.Context, userID int64, code string) (*models.Couple, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil, fmt.Errorf("%w: code is required", ErrInvalidInput)
	}

	couple, err := s.couples.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := s.users.JoinCouple(ctx, userID, couple.ID, maxCoupleMembers); err != nil {
		return nil, err
	}

	m, err := s.Membership(ctx, userID)
	if err != nil {
		return nil, err
	}
	notifyUser(s.events, m.PartnerID, WSMessage{
		Type: EventPartnerJoined,
		Data: map[string]interface{}{"couple_id": couple.ID},
	})

	log.Info().
		Int64("user_id", userID).
		Int64("couple_id", couple.ID).
		Msg("Couple joined")
	return couple, nil
}

// LeaveCouple detaches the user from their couple. The leaver's entries go with
// them and the remaining member keeps seeing their own entries on their side.
// The couple is removed once nobody is left in it.
func (s *CoupleService) LeaveCouple(ctx context.Context, userID int64) error {
	m, err := s.Membership(ctx, userID)
	if err != nil {
		return err
	}

	deleted, err := s.couples.Leave(ctx, m.CoupleID, userID)
	if err != nil {
		return err
	}

	notifyUser(s.events, m.PartnerID, WSMessage{Type: EventPartnerLeft})

	log.Info().
		Int64("user_id", userID).
		Int64("couple_id", m.CoupleID).
		Bool("couple_deleted", deleted).
		Msg("Couple left")
	return nil
}

// Membership resolves the user's couple and their role in it
func (s *CoupleService) Membership(ctx context.Context, userID int64) (*Membership, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.CoupleID == nil {
		return nil, ErrNotInCouple
	}

	members, err := s.users.ListMembers(ctx, *user.CoupleID)
	if err != nil {
		return nil, err
	}

	return &Membership{
		CoupleID:  *user.CoupleID,
		Roles:     timeline.ResolveRoles(members, userID),
		Members:   members,
		PartnerID: partnerOf(members, userID),
	}, nil
}

// Status returns the user's couple, members and roles
func (s *CoupleService) Status(ctx context.Context, userID int64) (*CoupleStatus, error) {
	m, err := s.Membership(ctx, userID)
	if err != nil {
		return nil, err
	}
	couple, err := s.couples.GetByID(ctx, m.CoupleID)
	if err != nil {
		return nil, err
	}

	members := m.Members
	if members == nil {
		members = []models.Member{}
	}
	return &CoupleStatus{
		Couple:      couple,
		Members:     members,
		Roles:       m.Roles,
		PartnerName: m.Roles.PartnerName,
		Complete:    len(m.Members) >= 2,
	}, nil
}

// partnerOf returns the ID behind roles.PartnerName, or 0 while awaiting a partner
func partnerOf(members []models.Member, userID int64) int64 {
	first, second, ok := timeline.Pair(members)
	if !ok {
		return 0
	}
	if userID == first.ID {
		return second.ID
	}
	return first.ID
}
