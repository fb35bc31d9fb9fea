package calendar

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"crm-imobiliario/internal/config"
	"crm-imobiliario/internal/database"
	"crm-imobiliario/internal/features/lead"
	"crm-imobiliario/internal/features/property"
	"crm-imobiliario/internal/features/visit"
	"crm-imobiliario/internal/querycache"
	"crm-imobiliario/internal/realtime"
	"crm-imobiliario/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

var validate = validator.New()

var (
	ErrCalendarNotConfigured = errors.New("integração com Google Calendar não configurada")
	ErrExchangeFailed        = errors.New("falha ao trocar código de autorização")
)

// channelRenewalLead is how far ahead of expiry a webhook channel is replaced
const channelRenewalLead = 24 * time.Hour

type CalendarService interface {
	BeginAuthorization(ctx context.Context) (*AuthorizationStart, error)
	AuthorizationStatus(ctx context.Context, state string, wait time.Duration) (Flow, error)
	CancelAuthorization(ctx context.Context, state string) error
	Exchange(ctx context.Context, req ExchangeRequest) (*ConnectionStatus, error)
	Status(ctx context.Context) (*ConnectionStatus, error)
	Disconnect(ctx context.Context) error
	PushVisit(ctx context.Context, action visit.SyncAction, v visit.Visit) error
	ManualSync(ctx context.Context, req SyncRequest) error
	HandleNotification(ctx context.Context, n Notification) (int, error)
	RenewChannels(ctx context.Context) (int, error)
}

type CalendarServiceImpl struct {
	Tokens        TokenRepository
	Syncs         EventSyncRepository
	Provider      Provider
	TokenManager  *TokenManager
	Flows         *FlowRegistry
	Visits        visit.VisitRepository
	Leads         lead.LeadRepository
	Properties    property.PropertyRepository
	Cache         *querycache.Cache
	Publisher     realtime.Publisher
	Logger        *zap.Logger
	Configured    bool
	WebhookURL    string
	InboundWindow time.Duration
	Location      *time.Location
	Now           func() time.Time
}

func NewCalendarService(
	tokens TokenRepository,
	syncs EventSyncRepository,
	provider Provider,
	visits visit.VisitRepository,
	leads lead.LeadRepository,
	properties property.PropertyRepository,
	cache *querycache.Cache,
	publisher realtime.Publisher,
	logger *zap.Logger,
	cfg *config.Config,
) CalendarService {
	loc, err := time.LoadLocation(cfg.Google.TimeZone)
	if err != nil {
		logger.Warn("unknown calendar time zone, using UTC", zap.String("tz", cfg.Google.TimeZone), zap.Error(err))
		loc = time.UTC
	}
	return &CalendarServiceImpl{
		Tokens:        tokens,
		Syncs:         syncs,
		Provider:      provider,
		TokenManager:  NewTokenManager(tokens, provider, cfg.Google.RefreshWindow, logger),
		Flows:         NewFlowRegistry(cfg.Google.AuthorizationTimeout),
		Visits:        visits,
		Leads:         leads,
		Properties:    properties,
		Cache:         cache,
		Publisher:     publisher,
		Logger:        logger,
		Configured:    cfg.Google.ClientID != "",
		WebhookURL:    cfg.Google.WebhookURL,
		InboundWindow: cfg.Google.InboundWindow,
		Location:      loc,
		Now:           time.Now,
	}
}

func (s *CalendarServiceImpl) BeginAuthorization(ctx context.Context) (*AuthorizationStart, error) {
	userID, err := utils.ActorID(ctx)
	if err != nil {
		return nil, err
	}
	if !s.Configured {
		return nil, ErrCalendarNotConfigured
	}
	flow := s.Flows.Begin(userID)
	s.Logger.Info("calendar authorization started", zap.String("user_id", userID), zap.String("state", flow.State))
	return &AuthorizationStart{
		AuthURL:   s.Provider.AuthURL(flow.State),
		State:     flow.State,
		ExpiresAt: flow.ExpiresAt,
	}, nil
}

// AuthorizationStatus returns the flow snapshot. A positive wait long-polls
// until the flow resolves or the wait elapses.
func (s *CalendarServiceImpl) AuthorizationStatus(ctx context.Context, state string, wait time.Duration) (Flow, error) {
	userID, err := utils.ActorID(ctx)
	if err != nil {
		return Flow{}, err
	}
	if wait <= 0 {
		f := s.Flows.Get(state, userID)
		if f.Status == FlowNotStarted {
			return f, ErrAuthorizationUnknown
		}
		return f, nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()
	f, err := s.Flows.Wait(waitCtx, state, userID)
	if errors.Is(err, context.DeadlineExceeded) {
		return f, nil
	}
	return f, err
}

// CancelAuthorization is called when the client sees the popup closed
func (s *CalendarServiceImpl) CancelAuthorization(ctx context.Context, state string) error {
	userID, err := utils.ActorID(ctx)
	if err != nil {
		return err
	}
	return s.Flows.Cancel(state, userID)
}

func (s *CalendarServiceImpl) Exchange(ctx context.Context, req ExchangeRequest) (*ConnectionStatus, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	userID, err := utils.ActorID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.Flows.Check(req.State, userID); err != nil {
		return nil, err
	}

	oauthTok, err := s.Provider.Exchange(ctx, req.Code)
	if err != nil {
		_ = s.Flows.Fail(req.State, userID, ErrExchangeFailed)
		return nil, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}

	now := s.Now().UTC()
	tok := &Token{
		ID:           uuid.NewString(),
		UserID:       userID,
		AccessToken:  oauthTok.AccessToken,
		RefreshToken: oauthTok.RefreshToken,
		TokenExpiry:  oauthTok.Expiry,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Tokens.Upsert(ctx, tok); err != nil {
		_ = s.Flows.Fail(req.State, userID, err)
		return nil, fmt.Errorf("erro ao salvar tokens: %w", err)
	}
	if err := s.Flows.Complete(req.State, userID); err != nil {
		s.Logger.Warn("authorization resolved before exchange finished", zap.String("user_id", userID), zap.Error(err))
	}
	s.Publisher.Publish(database.CollectionCalendarTokens, realtime.ChangeUpdate, userID)
	s.Logger.Info("calendar connected", zap.String("user_id", userID))

	status := &ConnectionStatus{Connected: true, ConnectedAt: &now}
	if ch := s.registerWebhook(ctx, userID, tok.AccessToken); ch != nil && !ch.Expiration.IsZero() {
		status.WebhookExpiry = &ch.Expiration
	}
	return status, nil
}

// registerWebhook subscribes to push notifications for the user's calendar.
// Failures are logged only.
func (s *CalendarServiceImpl) registerWebhook(ctx context.Context, userID, accessToken string) *Channel {
	if s.WebhookURL == "" {
		return nil
	}
	ch, err := s.Provider.Watch(ctx, accessToken, uuid.NewString(), s.WebhookURL)
	if err != nil {
		s.Logger.Warn("failed to register calendar webhook", zap.String("user_id", userID), zap.Error(err))
		return nil
	}
	if err := s.Tokens.UpdateChannel(ctx, userID, *ch, s.Now().UTC()); err != nil {
		s.Logger.Warn("failed to store calendar webhook channel", zap.String("user_id", userID), zap.Error(err))
		return nil
	}
	return ch
}

func (s *CalendarServiceImpl) Status(ctx context.Context) (*ConnectionStatus, error) {
	userID, err := utils.ActorID(ctx)
	if err != nil {
		return nil, err
	}
	tok, err := s.Tokens.FindByUser(ctx, userID)
	if errors.Is(err, ErrNotConnected) {
		return &ConnectionStatus{Connected: false}, nil
	}
	if err != nil {
		return nil, err
	}
	connectedAt := tok.CreatedAt
	return &ConnectionStatus{Connected: true, ConnectedAt: &connectedAt, WebhookExpiry: tok.WebhookExpiry}, nil
}

// Disconnect forgets the user's tokens. Nothing is revoked at the provider.
func (s *CalendarServiceImpl) Disconnect(ctx context.Context) error {
	userID, err := utils.ActorID(ctx)
	if err != nil {
		return err
	}
	if err := s.Tokens.Delete(ctx, userID); err != nil {
		return err
	}
	s.Publisher.Publish(database.CollectionCalendarTokens, realtime.ChangeDelete, userID)
	s.Logger.Info("calendar disconnected", zap.String("user_id", userID))
	return nil
}

// PushVisit mirrors a visit write into the caller's calendar. Users without a
// connection are skipped silently.
func (s *CalendarServiceImpl) PushVisit(ctx context.Context, action visit.SyncAction, v visit.Visit) error {
	userID, err := utils.ActorID(ctx)
	if err != nil {
		return err
	}
	err = s.push(ctx, userID, action, v)
	if errors.Is(err, ErrNotConnected) {
		s.Logger.Debug("calendar not connected, skipping push", zap.String("user_id", userID), zap.String("visita_id", v.ID))
		return nil
	}
	return err
}

func (s *CalendarServiceImpl) ManualSync(ctx context.Context, req SyncRequest) error {
	if err := validate.Struct(req); err != nil {
		return err
	}
	userID, err := utils.ActorID(ctx)
	if err != nil {
		return err
	}

	action := visit.SyncAction(req.Action)
	v, err := s.Visits.FindByID(ctx, req.VisitaID)
	switch {
	case errors.Is(err, visit.ErrVisitNotFound) && action == visit.SyncDelete:
		v = &visit.Visit{ID: req.VisitaID}
	case err != nil:
		return err
	}
	return s.push(ctx, userID, action, *v)
}

func (s *CalendarServiceImpl) push(ctx context.Context, userID string, action visit.SyncAction, v visit.Visit) error {
	tok, err := s.Tokens.FindByUser(ctx, userID)
	if err != nil {
		return err
	}
	accessToken, err := s.TokenManager.AccessToken(ctx, tok)
	if err != nil {
		return fmt.Errorf("failed to refresh calendar token: %w", err)
	}

	mapping, err := s.Syncs.Find(ctx, v.ID, userID)
	if err != nil && !errors.Is(err, ErrSyncNotFound) {
		return err
	}

	switch action {
	case visit.SyncCreate:
		// a visit already mirrored is left alone; updates go through SyncUpdate
		if mapping != nil {
			return nil
		}
		ev, err := s.eventFor(ctx, v)
		if err != nil {
			return err
		}
		eventID, err := s.Provider.InsertEvent(ctx, accessToken, ev)
		if err != nil {
			return fmt.Errorf("failed to create calendar event: %w", err)
		}
		now := s.Now().UTC()
		sync := &EventSync{
			ID:            uuid.NewString(),
			VisitaID:      v.ID,
			GoogleEventID: eventID,
			UserID:        userID,
			LastSyncedAt:  now,
			CreatedAt:     now,
		}
		if err := s.Syncs.Insert(ctx, sync); err != nil {
			return err
		}
		s.Publisher.Publish(database.CollectionCalendarEventMap, realtime.ChangeInsert, sync.ID)

	case visit.SyncUpdate:
		if mapping == nil {
			return nil
		}
		ev, err := s.eventFor(ctx, v)
		if err != nil {
			return err
		}
		if err := s.Provider.UpdateEvent(ctx, accessToken, mapping.GoogleEventID, ev); err != nil {
			return fmt.Errorf("failed to update calendar event: %w", err)
		}
		if err := s.Syncs.Touch(ctx, v.ID, userID, s.Now().UTC()); err != nil {
			return err
		}

	case visit.SyncDelete:
		if mapping == nil {
			return nil
		}
		if err := s.Provider.DeleteEvent(ctx, accessToken, mapping.GoogleEventID); err != nil {
			return fmt.Errorf("failed to delete calendar event: %w", err)
		}
		if err := s.Syncs.Delete(ctx, v.ID, userID); err != nil {
			return err
		}
		s.Publisher.Publish(database.CollectionCalendarEventMap, realtime.ChangeDelete, mapping.ID)

	default:
		return fmt.Errorf("unknown sync action %q", action)
	}
	return nil
}

func (s *CalendarServiceImpl) eventFor(ctx context.Context, v visit.Visit) (Event, error) {
	l, err := s.Leads.FindByID(ctx, v.LeadID)
	if err != nil && !errors.Is(err, lead.ErrLeadNotFound) {
		return Event{}, err
	}
	p, err := s.Properties.FindByID(ctx, v.ImovelID)
	if err != nil && !errors.Is(err, property.ErrPropertyNotFound) {
		return Event{}, err
	}
	return BuildEvent(v, l, p, s.Location), nil
}

// BuildEvent renders a visit as a calendar event in loc
func BuildEvent(v visit.Visit, l *lead.Lead, p *property.Property, loc *time.Location) Event {
	start := v.DataHora.In(loc)
	ev := Event{
		Summary:     "Visita: " + lead.DisplayName(l) + " - " + property.Address(p),
		Description: describe(v, l, p),
		Start:       start,
		End:         start.Add(v.DurationOrDefault()),
		TimeZone:    loc.String(),
		Status:      EventConfirmed,
	}
	if v.Status == visit.StatusCancelada {
		ev.Status = EventCancelled
	}
	return ev
}

func describe(v visit.Visit, l *lead.Lead, p *property.Property) string {
	orNA := func(s string) string {
		if s == "" {
			return "N/A"
		}
		return s
	}
	var nome, email, telefone, endereco string
	if l != nil {
		nome, email, telefone = l.Nome, l.Email, l.Telefone
	}
	if p != nil && p.Endereco != "" {
		endereco = property.Address(p)
	}
	obs := v.Observacoes
	if obs == "" {
		obs = "Nenhuma"
	}

	lines := []string{
		"Tipo: " + orNA(v.Tipo),
		"Lead: " + orNA(nome),
		"Email: " + orNA(email),
		"Telefone: " + orNA(telefone),
		"Imóvel: " + orNA(endereco),
		"Observações: " + obs,
	}
	return strings.Join(lines, "\n")
}

// HandleNotification applies provider-side changes to mapped visits and
// returns how many were updated. Handshakes, unknown states and unknown
// channels are acknowledged without touching any data.
func (s *CalendarServiceImpl) HandleNotification(ctx context.Context, n Notification) (int, error) {
	if n.ResourceState == ResourceStateSync {
		s.Logger.Debug("calendar webhook handshake", zap.String("channel_id", n.ChannelID))
		return 0, nil
	}
	if n.ResourceState != ResourceStateExists {
		return 0, nil
	}

	tok, err := s.Tokens.FindByChannel(ctx, n.ChannelID)
	if errors.Is(err, ErrUnknownChannel) {
		s.Logger.Info("calendar webhook for unknown channel", zap.String("channel_id", n.ChannelID))
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	accessToken, err := s.TokenManager.AccessToken(ctx, tok)
	if err != nil {
		return 0, fmt.Errorf("failed to refresh calendar token: %w", err)
	}
	now := s.Now()
	events, err := s.Provider.ListEvents(ctx, accessToken, now.Add(-s.InboundWindow))
	if err != nil {
		return 0, fmt.Errorf("failed to list calendar events: %w", err)
	}

	updated := 0
	for _, ev := range events {
		mapping, err := s.Syncs.FindByEvent(ctx, ev.ID, tok.UserID)
		if errors.Is(err, ErrSyncNotFound) {
			continue
		}
		if err != nil {
			return updated, err
		}
		if ev.Start.IsZero() {
			s.Logger.Warn("calendar event without start, skipping", zap.String("event_id", ev.ID))
			continue
		}

		fields := bson.M{
			"data_hora":  ev.Start.UTC(),
			"duracao":    eventMinutes(ev),
			"status":     inboundStatus(ev.Status),
			"updated_at": now.UTC(),
		}
		if _, err := s.Visits.Update(ctx, mapping.VisitaID, fields); err != nil {
			if errors.Is(err, visit.ErrVisitNotFound) {
				s.Logger.Warn("mapped visit no longer exists", zap.String("visita_id", mapping.VisitaID))
				continue
			}
			return updated, err
		}
		if err := s.Syncs.Touch(ctx, mapping.VisitaID, tok.UserID, now.UTC()); err != nil {
			s.Logger.Warn("failed to touch calendar mapping", zap.String("visita_id", mapping.VisitaID), zap.Error(err))
		}
		s.Publisher.Publish(database.CollectionVisits, realtime.ChangeUpdate, mapping.VisitaID)
		updated++
	}

	if updated > 0 {
		s.Cache.Invalidate(querycache.KeyVisits, querycache.KeyDashboardMetrics)
	}
	s.Logger.Info("calendar webhook processed",
		zap.String("user_id", tok.UserID), zap.Int("events", len(events)), zap.Int("updated", updated))
	return updated, nil
}

func eventMinutes(ev Event) int {
	if ev.End.Before(ev.Start) || ev.End.IsZero() {
		return visit.DefaultDuration
	}
	return int(math.Round(ev.End.Sub(ev.Start).Minutes()))
}

func inboundStatus(eventStatus string) string {
	if eventStatus == EventCancelled {
		return visit.StatusCancelada
	}
	return visit.StatusAgendada
}

// RenewChannels replaces webhook channels that expire within a day and
// returns how many were renewed. One user's failure does not stop the rest.
func (s *CalendarServiceImpl) RenewChannels(ctx context.Context) (int, error) {
	if s.WebhookURL == "" {
		return 0, nil
	}
	tokens, err := s.Tokens.ListChannelsExpiringBefore(ctx, s.Now().Add(channelRenewalLead))
	if err != nil {
		return 0, err
	}

	renewed := 0
	for i := range tokens {
		tok := &tokens[i]
		log := s.Logger.With(zap.String("user_id", tok.UserID))

		accessToken, err := s.TokenManager.AccessToken(ctx, tok)
		if err != nil {
			log.Warn("failed to refresh token for channel renewal", zap.Error(err))
			continue
		}
		if s.registerWebhook(ctx, tok.UserID, accessToken) == nil {
			continue
		}
		old := Channel{ID: tok.WebhookChannelID, ResourceID: tok.WebhookResourceID}
		if err := s.Provider.StopChannel(ctx, accessToken, old); err != nil {
			log.Warn("failed to stop old calendar channel", zap.String("channel_id", old.ID), zap.Error(err))
		}
		renewed++
	}
	if renewed > 0 {
		s.Logger.Info("calendar channels renewed", zap.Int("count", renewed))
	}
	return renewed, nil
}
