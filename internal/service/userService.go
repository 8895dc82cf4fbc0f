package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/eventshow/eventshow/config"
	repository "github.com/eventshow/eventshow/internal/database/postgres"
	"github.com/eventshow/eventshow/internal/entity"
	"github.com/eventshow/eventshow/pkg/payment"
)

const tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

type userService struct {
	userRepo        repository.UserRepository
	eventRepo       repository.EventRepository
	transactionRepo repository.TransactionRepository
	queue           TaskPublisher
	provider        payment.Provider
	jwtCfg          config.JWTConfig
	referralCfg     config.ReferralConfig
	log             *logrus.Logger
	now             Clock
}

func NewUserService(
	userRepo repository.UserRepository,
	eventRepo repository.EventRepository,
	transactionRepo repository.TransactionRepository,
	queue TaskPublisher,
	provider payment.Provider,
	jwtCfg config.JWTConfig,
	referralCfg config.ReferralConfig,
	log *logrus.Logger,
	now Clock,
) UserService {
	if now == nil {
		now = time.Now
	}
	return &userService{
		userRepo:        userRepo,
		eventRepo:       eventRepo,
		transactionRepo: transactionRepo,
		queue:           queue,
		provider:        provider,
		jwtCfg:          jwtCfg,
		referralCfg:     referralCfg,
		log:             log,
		now:             now,
	}
}

func (s *userService) SignUp(ctx context.Context, req *SignUpRequest) (*entity.User, error) {
	birthdate, err := time.Parse("2006-01-02", req.Birthdate)
	if err != nil {
		return nil, fmt.Errorf("%w: birthdate must be YYYY-MM-DD", entity.ErrInvalidInput)
	}
	if !birthdate.Before(s.now()) {
		return nil, fmt.Errorf("%w: birthdate must be in the past", entity.ErrInvalidInput)
	}

	if existing, _ := s.userRepo.GetByUsername(ctx, req.Username); existing != nil {
		return nil, entity.ErrUserAlreadyExists
	}
	if existing, _ := s.userRepo.GetByEmail(ctx, req.Email); existing != nil {
		return nil, entity.ErrUserAlreadyExists
	}

	// Resolve the referrer before creating anything so an unknown token
	// fails the whole signup.
	var referrer *entity.Profile
	if req.FriendToken != "" {
		referrer, err = s.userRepo.GetProfileByToken(ctx, req.FriendToken)
		if err != nil {
			return nil, entity.ErrInvalidToken
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	token, err := generateReferralToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate referral token: %w", err)
	}

	user := &entity.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
	}
	profile := &entity.Profile{
		Birthdate: entity.DateOnly{Time: birthdate},
		Token:     token,
	}

	if err := s.userRepo.Create(ctx, user, profile); err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	if referrer != nil {
		if err := s.userRepo.AddEventpoints(ctx, referrer.UserID, s.referralCfg.BonusPoints); err != nil {
			s.log.WithError(err).WithField("referrer_id", referrer.UserID).
				Error("failed to credit referral bonus")
		}
	}

	s.publishEmail(ctx, "welcome_email", map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})

	s.log.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"username": user.Username,
	}).Info("user registered")

	return user, nil
}

func (s *userService) Login(ctx context.Context, req *LoginRequest) (string, error) {
	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		return "", entity.ErrWrongCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return "", entity.ErrWrongCredentials
	}

	now := s.now()
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"iat":     now.Unix(),
		"exp":     now.Add(s.jwtCfg.Expiration).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtCfg.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

func (s *userService) GetUser(ctx context.Context, id int64) (*entity.UserWithProfile, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	result := &entity.UserWithProfile{User: *user}
	if profile, err := s.userRepo.GetProfile(ctx, id); err == nil {
		result.Profile = profile
	}

	return result, nil
}

func (s *userService) GetProfile(ctx context.Context, userID int64) (*entity.UserWithProfile, error) {
	return s.GetUser(ctx, userID)
}

func (s *userService) UpdateProfile(ctx context.Context, userID int64, req *UpdateProfileRequest) (*entity.Profile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile, err := s.userRepo.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	userChanged := false
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
		userChanged = true
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
		userChanged = true
	}
	if req.Email != nil {
		user.Email = *req.Email
		userChanged = true
	}
	if userChanged {
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
	}

	if req.Location != nil {
		profile.Location = *req.Location
	}
	if req.Picture != nil {
		profile.Picture = *req.Picture
	}
	if req.Bio != nil {
		profile.Bio = *req.Bio
	}
	if err := s.userRepo.UpdateProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return profile, nil
}

// DeleteAccount removes the user. Hosted events starting more than the
// modification cutoff away are cancelled outright; nearer ones keep
// running without a host and without the host's address.
func (s *userService) DeleteAccount(ctx context.Context, userID int64) error {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return err
	}

	now := s.now()
	cutoff := now.AddDate(0, 0, entity.ModifyCutoffDays)

	hosted, err := s.eventRepo.GetByHost(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list hosted events: %w", err)
	}
	for _, event := range hosted {
		if event.Date.Time.After(cutoff) {
			affected := s.reverseEventTransactions(ctx, event.ID)
			s.notifyEventCancelled(ctx, &event.Event, affected)
		}
	}

	deleted, err := s.eventRepo.DeleteByHostAfter(ctx, userID, cutoff)
	if err != nil {
		return fmt.Errorf("failed to delete future events: %w", err)
	}
	detached, err := s.eventRepo.DetachHost(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to detach remaining events: %w", err)
	}

	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"user_id":  userID,
		"deleted":  deleted,
		"detached": detached,
	}).Info("account deleted")

	return nil
}

func (s *userService) GetReceipts(ctx context.Context, userID int64) ([]*entity.Receipt, error) {
	return s.transactionRepo.GetReceiptsByUser(ctx, userID)
}

// reverseEventTransactions refunds and reverses every open transaction of
// an event that is being cancelled, returning the affected user IDs.
// The flag flip and point credit are one atomic repository operation and
// idempotent per transaction; refund failures are logged, not fatal.
func (s *userService) reverseEventTransactions(ctx context.Context, eventID int64) []int64 {
	transactions, err := s.transactionRepo.GetUnsettledByEvent(ctx, eventID)
	if err != nil {
		s.log.WithError(err).WithField("event_id", eventID).
			Error("failed to list transactions for reversal")
		return nil
	}

	affected := make([]int64, 0, len(transactions))
	for _, t := range transactions {
		if err := s.transactionRepo.ReverseAndCredit(ctx, t.ID); err != nil {
			if err != entity.ErrAlreadyReversed {
				s.log.WithError(err).WithField("transaction_id", t.ID).
					Error("failed to reverse transaction")
			}
			continue
		}

		if t.ChargeID != "" {
			if err := s.provider.Refund(ctx, t.ChargeID); err != nil {
				s.log.WithError(err).WithField("charge_id", t.ChargeID).
					Error("failed to refund charge")
			}
		}

		affected = append(affected, t.UserID)
	}

	return affected
}

func (s *userService) notifyEventCancelled(ctx context.Context, event *entity.Event, userIDs []int64) {
	for _, userID := range userIDs {
		s.publishEmail(ctx, "event_deleted_email", map[string]interface{}{
			"user_id":     userID,
			"event_id":    event.ID,
			"event_title": event.Title,
		})
	}
}

func (s *userService) publishEmail(ctx context.Context, taskType string, data map[string]interface{}) {
	task := &Task{
		ID:   uuid.NewString(),
		Type: taskType,
		Data: data,
	}
	if err := s.queue.Publish(ctx, task); err != nil {
		s.log.WithError(err).WithField("task_type", taskType).
			Warn("failed to queue notification")
	}
}

func generateReferralToken() (string, error) {
	buf := make([]byte, entity.TokenLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = tokenAlphabet[int(b)%len(tokenAlphabet)]
	}
	return string(buf), nil
}
