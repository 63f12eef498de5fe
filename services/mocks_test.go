package services

import (
	"context"
	"sync"
	"time"

	"github.com/Dosada05/hunt-reservation/models"
	"github.com/Dosada05/hunt-reservation/repositories"
	"github.com/Dosada05/hunt-reservation/tibia"
)

// mockTxRunner сериализует «транзакции» мьютексом, как это делает БД
// с блокировками FOR UPDATE. Отката нет: моки обязаны падать до мутаций.
type mockTxRunner struct {
	mu sync.Mutex
}

func (r *mockTxRunner) RunInTx(ctx context.Context, fn func(q repositories.SQLExecutor) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(nil)
}

type mockUserRepo struct {
	mu    sync.Mutex
	users map[int]*models.User
}

func newMockUserRepo(users ...*models.User) *mockUserRepo {
	r := &mockUserRepo{users: make(map[int]*models.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return repositories.ErrUserEmailConflict
		}
		if u.Nickname == user.Nickname {
			return repositories.ErrUserNicknameTaken
		}
	}
	user.ID = len(r.users) + 1
	// Храним копию, как настоящая БД: мутации структуры вызывающим
	// (например, очистка PasswordHash) не должны менять хранилище.
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *mockUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	out := *u
	return &out, nil
}

func (r *mockUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *mockUserRepo) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.User, 0, len(r.users))
	for _, u := range r.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (r *mockUserRepo) ApplyPointsDelta(ctx context.Context, q repositories.SQLExecutor, userID int, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	if u.Points+delta < 0 {
		return repositories.ErrInsufficientPoints
	}
	u.Points += delta
	return nil
}

func (r *mockUserRepo) GetPoints(ctx context.Context, q repositories.SQLExecutor, userID int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return 0, repositories.ErrUserNotFound
	}
	return u.Points, nil
}

type mockPointRepo struct {
	mu  sync.Mutex
	txs []*models.PointTransaction

	// Параметры последнего ListByUser, как их увидела бы БД.
	lastLimit  int
	lastOffset int
}

func (r *mockPointRepo) Append(ctx context.Context, q repositories.SQLExecutor, tx *models.PointTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx.ID = len(r.txs) + 1
	r.txs = append(r.txs, tx)
	return nil
}

func (r *mockPointRepo) ListByUser(ctx context.Context, userID int, limit, offset int) ([]*models.PointTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastLimit = limit
	r.lastOffset = offset
	var out []*models.PointTransaction
	for _, tx := range r.txs {
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (r *mockPointRepo) SumByUser(ctx context.Context, q repositories.SQLExecutor, userID int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := 0
	for _, tx := range r.txs {
		if tx.UserID == userID {
			sum += tx.Amount
		}
	}
	return sum, nil
}

func (r *mockPointRepo) FindByRequestAndReason(ctx context.Context, q repositories.SQLExecutor, requestID int, reason string) (*models.PointTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tx := range r.txs {
		if tx.RelatedRequestID != nil && *tx.RelatedRequestID == requestID && tx.Reason == reason {
			return tx, nil
		}
	}
	return nil, repositories.ErrPointTransactionNotFound
}

func (r *mockPointRepo) FindByClaimAndReason(ctx context.Context, q repositories.SQLExecutor, claimID int, reason string) (*models.PointTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tx := range r.txs {
		if tx.RelatedClaimID != nil && *tx.RelatedClaimID == claimID && tx.Reason == reason {
			return tx, nil
		}
	}
	return nil, repositories.ErrPointTransactionNotFound
}

// countByReason считает проводки пользователя с данной причиной.
func (r *mockPointRepo) countByReason(userID int, reason string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, tx := range r.txs {
		if tx.UserID == userID && tx.Reason == reason {
			n++
		}
	}
	return n
}

// mockRequestRepo воспроизводит частичный уникальный индекс
// requests_approved_tuple_key: не более одной одобренной заявки на кортеж.
type mockRequestRepo struct {
	mu       sync.Mutex
	requests map[int]*models.Request
	nextID   int
}

func newMockRequestRepo(requests ...*models.Request) *mockRequestRepo {
	r := &mockRequestRepo{requests: make(map[int]*models.Request), nextID: 1}
	for _, req := range requests {
		if req.ID >= r.nextID {
			r.nextID = req.ID + 1
		}
		r.requests[req.ID] = req
	}
	return r
}

func (r *mockRequestRepo) sameTupleApprovedLocked(req *models.Request, excludeID int) bool {
	for _, e := range r.requests {
		if e.ID != excludeID &&
			e.RespawnID == req.RespawnID &&
			e.SlotID == req.SlotID &&
			e.PeriodID == req.PeriodID &&
			e.Status == models.RequestStatusApproved {
			return true
		}
	}
	return false
}

func (r *mockRequestRepo) Create(ctx context.Context, q repositories.SQLExecutor, request *models.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if request.Status == models.RequestStatusApproved && r.sameTupleApprovedLocked(request, 0) {
		return repositories.ErrRequestSlotConflict
	}
	request.ID = r.nextID
	r.nextID++
	r.requests[request.ID] = request
	return nil
}

func (r *mockRequestRepo) GetByID(ctx context.Context, q repositories.SQLExecutor, id int, forUpdate bool) (*models.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, repositories.ErrRequestNotFound
	}
	return req, nil
}

func (r *mockRequestRepo) List(ctx context.Context, filter repositories.RequestFilter) ([]*models.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Request
	for _, req := range r.requests {
		if filter.ServerID != nil && req.ServerID != *filter.ServerID {
			continue
		}
		if filter.PeriodID != nil && req.PeriodID != *filter.PeriodID {
			continue
		}
		if filter.UserID != nil && req.UserID != *filter.UserID {
			continue
		}
		if filter.Status != nil && req.Status != *filter.Status {
			continue
		}
		out = append(out, req)
	}
	return out, nil
}

func (r *mockRequestRepo) ListByTuple(ctx context.Context, q repositories.SQLExecutor, respawnID, slotID, periodID int) ([]*models.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Request
	for _, req := range r.requests {
		if req.RespawnID == respawnID && req.SlotID == slotID && req.PeriodID == periodID {
			out = append(out, req)
		}
	}
	return out, nil
}

func (r *mockRequestRepo) UpdateStatus(ctx context.Context, q repositories.SQLExecutor, id int, status models.RequestStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return repositories.ErrRequestNotFound
	}
	if status == models.RequestStatusApproved && r.sameTupleApprovedLocked(req, id) {
		return repositories.ErrRequestSlotConflict
	}
	req.Status = status
	return nil
}

func (r *mockRequestRepo) ListPartyMembers(ctx context.Context, q repositories.SQLExecutor, requestID int) ([]models.PartyMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[requestID]
	if !ok {
		return nil, repositories.ErrRequestNotFound
	}
	return req.Party, nil
}

type mockServerRepo struct {
	servers map[int]*models.Server
}

func newMockServerRepo(servers ...*models.Server) *mockServerRepo {
	r := &mockServerRepo{servers: make(map[int]*models.Server)}
	for _, s := range servers {
		r.servers[s.ID] = s
	}
	return r
}

func (r *mockServerRepo) Create(ctx context.Context, server *models.Server) error {
	server.ID = len(r.servers) + 1
	r.servers[server.ID] = server
	return nil
}

func (r *mockServerRepo) GetByID(ctx context.Context, id int) (*models.Server, error) {
	s, ok := r.servers[id]
	if !ok {
		return nil, repositories.ErrServerNotFound
	}
	return s, nil
}

func (r *mockServerRepo) List(ctx context.Context) ([]*models.Server, error) {
	out := make([]*models.Server, 0, len(r.servers))
	for _, s := range r.servers {
		out = append(out, s)
	}
	return out, nil
}

func (r *mockServerRepo) Update(ctx context.Context, server *models.Server) error {
	if _, ok := r.servers[server.ID]; !ok {
		return repositories.ErrServerNotFound
	}
	r.servers[server.ID] = server
	return nil
}

func (r *mockServerRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.servers[id]; !ok {
		return repositories.ErrServerNotFound
	}
	delete(r.servers, id)
	return nil
}

type mockRespawnRepo struct {
	mu       sync.Mutex
	respawns map[int]*models.Respawn
	nextID   int
}

func newMockRespawnRepo(respawns ...*models.Respawn) *mockRespawnRepo {
	r := &mockRespawnRepo{respawns: make(map[int]*models.Respawn), nextID: 1}
	for _, rs := range respawns {
		if rs.ID >= r.nextID {
			r.nextID = rs.ID + 1
		}
		r.respawns[rs.ID] = rs
	}
	return r
}

func (r *mockRespawnRepo) Create(ctx context.Context, q repositories.SQLExecutor, respawn *models.Respawn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	respawn.ID = r.nextID
	r.nextID++
	r.respawns[respawn.ID] = respawn
	return nil
}

func (r *mockRespawnRepo) GetByID(ctx context.Context, id int) (*models.Respawn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rs, ok := r.respawns[id]
	if !ok {
		return nil, repositories.ErrRespawnNotFound
	}
	return rs, nil
}

func (r *mockRespawnRepo) ListByServer(ctx context.Context, q repositories.SQLExecutor, serverID int, includeDifficulty bool) ([]*models.Respawn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Respawn
	for _, rs := range r.respawns {
		if rs.ServerID == serverID {
			out = append(out, rs)
		}
	}
	return out, nil
}

func (r *mockRespawnRepo) Update(ctx context.Context, respawn *models.Respawn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.respawns[respawn.ID]; !ok {
		return repositories.ErrRespawnNotFound
	}
	r.respawns[respawn.ID] = respawn
	return nil
}

func (r *mockRespawnRepo) UpdateImageKey(ctx context.Context, id int, imageKey *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rs, ok := r.respawns[id]
	if !ok {
		return repositories.ErrRespawnNotFound
	}
	rs.ImageKey = imageKey
	return nil
}

func (r *mockRespawnRepo) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.respawns[id]; !ok {
		return repositories.ErrRespawnNotFound
	}
	delete(r.respawns, id)
	return nil
}

func (r *mockRespawnRepo) DeleteByServer(ctx context.Context, q repositories.SQLExecutor, serverID int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	deleted := 0
	for id, rs := range r.respawns {
		if rs.ServerID == serverID {
			delete(r.respawns, id)
			deleted++
		}
	}
	return deleted, nil
}

type mockSlotRepo struct {
	slots map[int]*models.Slot
}

func newMockSlotRepo(slots ...*models.Slot) *mockSlotRepo {
	r := &mockSlotRepo{slots: make(map[int]*models.Slot)}
	for _, s := range slots {
		r.slots[s.ID] = s
	}
	return r
}

func (r *mockSlotRepo) Create(ctx context.Context, slot *models.Slot) error {
	slot.ID = len(r.slots) + 1
	r.slots[slot.ID] = slot
	return nil
}

func (r *mockSlotRepo) GetByID(ctx context.Context, id int) (*models.Slot, error) {
	s, ok := r.slots[id]
	if !ok {
		return nil, repositories.ErrSlotNotFound
	}
	return s, nil
}

func (r *mockSlotRepo) ListByServer(ctx context.Context, serverID int) ([]*models.Slot, error) {
	var out []*models.Slot
	for _, s := range r.slots {
		if s.ServerID == serverID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *mockSlotRepo) Update(ctx context.Context, slot *models.Slot) error {
	if _, ok := r.slots[slot.ID]; !ok {
		return repositories.ErrSlotNotFound
	}
	r.slots[slot.ID] = slot
	return nil
}

func (r *mockSlotRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.slots[id]; !ok {
		return repositories.ErrSlotNotFound
	}
	delete(r.slots, id)
	return nil
}

type mockPeriodRepo struct {
	periods map[int]*models.SchedulePeriod
}

func newMockPeriodRepo(periods ...*models.SchedulePeriod) *mockPeriodRepo {
	r := &mockPeriodRepo{periods: make(map[int]*models.SchedulePeriod)}
	for _, p := range periods {
		r.periods[p.ID] = p
	}
	return r
}

func (r *mockPeriodRepo) Create(ctx context.Context, period *models.SchedulePeriod) error {
	period.ID = len(r.periods) + 1
	r.periods[period.ID] = period
	return nil
}

func (r *mockPeriodRepo) GetByID(ctx context.Context, id int) (*models.SchedulePeriod, error) {
	p, ok := r.periods[id]
	if !ok {
		return nil, repositories.ErrPeriodNotFound
	}
	return p, nil
}

func (r *mockPeriodRepo) ListByServer(ctx context.Context, serverID int, onlyActive bool) ([]*models.SchedulePeriod, error) {
	var out []*models.SchedulePeriod
	for _, p := range r.periods {
		if p.ServerID != serverID {
			continue
		}
		if onlyActive && !p.IsActive {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *mockPeriodRepo) Update(ctx context.Context, period *models.SchedulePeriod) error {
	if _, ok := r.periods[period.ID]; !ok {
		return repositories.ErrPeriodNotFound
	}
	r.periods[period.ID] = period
	return nil
}

func (r *mockPeriodRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.periods[id]; !ok {
		return repositories.ErrPeriodNotFound
	}
	delete(r.periods, id)
	return nil
}

func (r *mockPeriodRepo) SetActive(ctx context.Context, q repositories.SQLExecutor, periodID int) error {
	target, ok := r.periods[periodID]
	if !ok {
		return repositories.ErrPeriodNotFound
	}
	for _, p := range r.periods {
		if p.ServerID == target.ServerID {
			p.IsActive = false
		}
	}
	target.IsActive = true
	return nil
}

func (r *mockPeriodRepo) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	for _, p := range r.periods {
		if p.IsActive && p.EndDate.Before(now) {
			p.IsActive = false
			n++
		}
	}
	return n, nil
}

type mockCharacterRepo struct {
	characters map[int]*models.Character
}

func newMockCharacterRepo(characters ...*models.Character) *mockCharacterRepo {
	r := &mockCharacterRepo{characters: make(map[int]*models.Character)}
	for _, c := range characters {
		r.characters[c.ID] = c
	}
	return r
}

func (r *mockCharacterRepo) Create(ctx context.Context, character *models.Character) error {
	for _, c := range r.characters {
		if c.Name == character.Name {
			return repositories.ErrCharacterNameConflict
		}
	}
	character.ID = len(r.characters) + 1
	r.characters[character.ID] = character
	return nil
}

func (r *mockCharacterRepo) GetByID(ctx context.Context, id int) (*models.Character, error) {
	c, ok := r.characters[id]
	if !ok {
		return nil, repositories.ErrCharacterNotFound
	}
	return c, nil
}

func (r *mockCharacterRepo) ListByUser(ctx context.Context, userID int) ([]*models.Character, error) {
	var out []*models.Character
	for _, c := range r.characters {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *mockCharacterRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.characters[id]; !ok {
		return repositories.ErrCharacterNotFound
	}
	delete(r.characters, id)
	return nil
}

type mockClaimRepo struct {
	mu     sync.Mutex
	claims map[int]*models.PointClaim
	nextID int
}

func newMockClaimRepo(claims ...*models.PointClaim) *mockClaimRepo {
	r := &mockClaimRepo{claims: make(map[int]*models.PointClaim), nextID: 1}
	for _, c := range claims {
		if c.ID >= r.nextID {
			r.nextID = c.ID + 1
		}
		r.claims[c.ID] = c
	}
	return r
}

func (r *mockClaimRepo) Create(ctx context.Context, q repositories.SQLExecutor, claim *models.PointClaim) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	claim.ID = r.nextID
	r.nextID++
	r.claims[claim.ID] = claim
	return nil
}

func (r *mockClaimRepo) GetByID(ctx context.Context, q repositories.SQLExecutor, id int, forUpdate bool) (*models.PointClaim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.claims[id]
	if !ok {
		return nil, repositories.ErrClaimNotFound
	}
	return c, nil
}

func (r *mockClaimRepo) List(ctx context.Context, userID *int) ([]*models.PointClaim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.PointClaim
	for _, c := range r.claims {
		if userID != nil && c.UserID != *userID {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *mockClaimRepo) UpdateStatus(ctx context.Context, q repositories.SQLExecutor, id int, status models.ClaimStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.claims[id]
	if !ok {
		return repositories.ErrClaimNotFound
	}
	c.Status = status
	return nil
}

// mockValidator подменяет внешний TibiaData API.
type mockValidator struct {
	characters map[string]*tibia.Character
	err        error
}

func (v *mockValidator) ValidateCharacter(ctx context.Context, name string) (*tibia.Character, error) {
	if v.err != nil {
		return nil, v.err
	}
	c, ok := v.characters[name]
	if !ok {
		return nil, tibia.ErrCharacterNotFound
	}
	return c, nil
}

type publishedEvent struct {
	serverID  int
	eventType string
}

type mockPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *mockPublisher) PublishServerEvent(serverID int, eventType string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{serverID: serverID, eventType: eventType})
}
