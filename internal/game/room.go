// internal/game/room.go
package game

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"doudizhu/internal/bot"
	"doudizhu/internal/models"
	"doudizhu/internal/rules"
)

// Phase is the state machine phase of a room.
type Phase string

const (
	PhaseLobby    Phase = "lobby"
	PhaseDealing  Phase = "dealing"
	PhaseBidding  Phase = "bidding"
	PhasePlaying  Phase = "playing"
	PhaseGameOver Phase = "game_over"
)

const maxSeats = 3

// baseStake is the bean value of one bid point at multiplier 1.
const baseStake = 100

// Result is the final outcome of one settled round.
type Result struct {
	RoundID     uuid.UUID
	RoomID      uuid.UUID
	RoomCode    string
	WinnerID    uuid.UUID
	LandlordID  uuid.UUID
	LandlordWon bool
	BaseBid     int
	Multiplier  int
	// Deltas holds each player's bean change this round.
	Deltas map[uuid.UUID]int
	// Humans lists the non-bot seat IDs, for rating updates.
	Humans []uuid.UUID
}

// OnGameEndFunc receives the final outcome of a round for persistence or
// lobby notification. It runs with the room lock held and must not call back
// into the room.
type OnGameEndFunc func(res Result)

// Room holds the entire authoritative state for one table. All mutation
// happens on the host, under Mu, one action at a time; guests only ever
// receive whole-state snapshots.
type Room struct {
	ID   uuid.UUID
	Code string

	Config models.RoomConfig

	Phase            Phase
	Players          []*models.Player
	CurrentTurnIndex int

	LandlordID uuid.UUID
	BaseBid    int
	Multiplier int

	LastPlayedCards []models.Card
	LastPlayerID    uuid.UUID

	KittyCards []models.Card
	WinnerID   uuid.UUID
	LaiziRank  models.Rank

	// Version increments on every accepted game-state mutation and is the
	// staleness key for scheduled work: a timer armed against an older
	// version discards its result.
	Version uint64

	// seq numbers outgoing snapshots. Presence changes (connect/disconnect)
	// advance seq without touching Version, so they never cancel a pending
	// deal transition or bot decision.
	seq uint64

	// bidsTaken counts bids in the current bidding round; highestBidderID is
	// the best sub-3 bidder so far.
	bidsTaken       int
	highestBidderID uuid.UUID

	// DealDelay paces the Dealing->Bidding transition, BotDelay the
	// artificial "thinking" pause before a bot acts. Both are cosmetic.
	DealDelay time.Duration
	BotDelay  time.Duration

	// shuffleFn produces the deck for a deal. Tests substitute a fixed deck.
	shuffleFn func() []models.Card

	Mu sync.Mutex

	// BroadcastFn ships a per-viewer snapshot to every connected guest, plus a
	// neutral table view with every hand hidden. It is invoked with Mu held
	// and must not reacquire it.
	BroadcastFn func(snaps map[uuid.UUID]Snapshot, table Snapshot)

	// OnGameEnd is invoked once per round when the game settles.
	OnGameEnd OnGameEndFunc

	timer *time.Timer
}

// NewRoom builds an empty room in the Lobby phase.
func NewRoom(code string, cfg models.RoomConfig) *Room {
	id, _ := uuid.NewRandom()
	return &Room{
		ID:         id,
		Code:       code,
		Config:     cfg,
		Phase:      PhaseLobby,
		Multiplier: 1,
		DealDelay:  2 * time.Second,
		BotDelay:   time.Second,
		shuffleFn:  models.NewDeck,
	}
}

// HandleJoin seats a new player, or reattaches a disconnected one to their
// seat. A full table or a duplicate join in Lobby is a silent no-op.
func (r *Room) HandleJoin(playerID uuid.UUID, name string) {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if p := r.playerByID(playerID); p != nil {
		// Known identity: treat as reconnect regardless of phase.
		p.Connected = true
		log.Infof("room %s: player %s rejoined seat", r.Code, playerID)
		r.broadcastLocked()
		return
	}
	if r.Phase != PhaseLobby || len(r.Players) >= maxSeats {
		log.Debugf("room %s: join from %s ignored (phase=%s seats=%d)", r.Code, playerID, r.Phase, len(r.Players))
		return
	}
	r.Players = append(r.Players, &models.Player{
		ID:        playerID,
		Name:      name,
		Connected: true,
	})
	log.Infof("room %s: player %s (%q) seated (%d/%d)", r.Code, playerID, name, len(r.Players), maxSeats)
	r.bumpAndBroadcast()
}

// AddBot seats an autonomous player. Lobby only.
func (r *Room) AddBot(name string) {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if r.Phase != PhaseLobby || len(r.Players) >= maxSeats {
		return
	}
	id, _ := uuid.NewRandom()
	r.Players = append(r.Players, &models.Player{
		ID:        id,
		Name:      name,
		IsBot:     true,
		Connected: true,
	})
	log.Infof("room %s: bot %q seated (%d/%d)", r.Code, name, len(r.Players), maxSeats)
	r.bumpAndBroadcast()
}

// RoomSummary is the lobby-browser view of one room.
type RoomSummary struct {
	Code        string `json:"code"`
	Phase       Phase  `json:"phase"`
	Seats       int    `json:"seats"`
	MaxSeats    int    `json:"maxSeats"`
	Private     bool   `json:"private"`
	EnableLaizi bool   `json:"enableLaizi"`
}

// Summary renders the room for a lobby listing.
func (r *Room) Summary() RoomSummary {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	return RoomSummary{
		Code:        r.Code,
		Phase:       r.Phase,
		Seats:       len(r.Players),
		MaxSeats:    maxSeats,
		Private:     r.Config.PasscodeHash != "",
		EnableLaizi: r.Config.EnableLaizi,
	}
}

// HasPlayer reports whether the identity holds a seat.
func (r *Room) HasPlayer(playerID uuid.UUID) bool {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	return r.playerByID(playerID) != nil
}

// HandleRestart starts (or restarts) a round. Any seated participant may
// request it; it is honored from Lobby and GameOver with a full table.
func (r *Room) HandleRestart(playerID uuid.UUID) {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if r.playerByID(playerID) == nil {
		return
	}
	if r.Phase != PhaseLobby && r.Phase != PhaseGameOver {
		return
	}
	if len(r.Players) != maxSeats {
		return
	}
	r.beginDeal()
}

// HandleBid applies a bid from the current seat. Out-of-turn or out-of-range
// bids are silent no-ops.
func (r *Room) HandleBid(playerID uuid.UUID, amount int) {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	r.handleBidLocked(playerID, amount)
}

func (r *Room) handleBidLocked(playerID uuid.UUID, amount int) {
	if r.Phase != PhaseBidding {
		return
	}
	p := r.currentPlayer()
	if p == nil || p.ID != playerID {
		log.Debugf("room %s: out-of-turn bid from %s ignored", r.Code, playerID)
		return
	}
	if amount < 0 || amount > 3 {
		return
	}

	r.bidsTaken++
	p.LastAction = bidLabel(amount)
	if amount > r.BaseBid {
		r.BaseBid = amount
		r.highestBidderID = playerID
	}

	if amount == 3 {
		r.assignLandlord(r.highestBidderID)
		return
	}
	if r.bidsTaken >= maxSeats {
		// Bidding round exhausted without a 3-bid: the highest bidder takes
		// the landlord seat; if everyone passed, reshuffle and redeal.
		if r.highestBidderID == uuid.Nil {
			log.Infof("room %s: all seats passed on bidding, redealing", r.Code)
			r.beginDeal()
			return
		}
		r.assignLandlord(r.highestBidderID)
		return
	}

	r.CurrentTurnIndex = (r.CurrentTurnIndex + 1) % maxSeats
	r.bumpAndBroadcast()
	r.scheduleBotTurn()
}

// HandlePlay applies a play (or an empty pass) from the current seat. The
// cards are referenced by ID and resolved against the acting player's own
// hand; the host never trusts client-side card data or validation.
func (r *Room) HandlePlay(playerID uuid.UUID, cardIDs []int) {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	r.handlePlayLocked(playerID, cardIDs)
}

func (r *Room) handlePlayLocked(playerID uuid.UUID, cardIDs []int) {
	if r.Phase != PhasePlaying {
		return
	}
	p := r.currentPlayer()
	if p == nil || p.ID != playerID {
		log.Debugf("room %s: out-of-turn play from %s ignored", r.Code, playerID)
		return
	}

	leading := r.LastPlayerID == uuid.Nil || r.LastPlayerID == playerID

	if len(cardIDs) == 0 {
		// Pass. The leader must play.
		if leading {
			return
		}
		p.LastAction = "pass"
		r.advancePlayTurn()
		r.bumpAndBroadcast()
		r.scheduleBotTurn()
		return
	}

	var last []models.Card
	if !leading {
		last = r.LastPlayedCards
	}

	cards, ok := r.peekCards(p, cardIDs)
	if !ok || !rules.IsValidPlay(cards, last, r.LaiziRank) {
		// Illegal play: state unchanged, no turn advance. The client recovers
		// from the absence of progress.
		log.Debugf("room %s: rejected play %v from %s", r.Code, cardIDs, playerID)
		return
	}

	taken, _ := p.TakeCards(cardIDs)
	r.LastPlayedCards = taken
	r.LastPlayerID = playerID
	p.LastAction = playLabel(taken, r.LaiziRank)

	if play, _ := rules.Classify(taken, r.LaiziRank); play.IsBomb() {
		r.Multiplier *= 2
	}

	if len(p.Hand) == 0 {
		r.settle(p)
		return
	}

	r.advancePlayTurn()
	r.bumpAndBroadcast()
	r.scheduleBotTurn()
}

// HandleDisconnect drops a guest's channel. In Lobby the seat reopens; in any
// later phase the seat is kept for a reconnect and the turn rotation stalls
// until the player returns.
func (r *Room) HandleDisconnect(playerID uuid.UUID) {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	p := r.playerByID(playerID)
	if p == nil {
		return
	}
	p.Connected = false
	if r.Phase == PhaseLobby {
		seats := r.Players[:0]
		for _, pl := range r.Players {
			if pl.ID != playerID {
				seats = append(seats, pl)
			}
		}
		r.Players = seats
		log.Infof("room %s: player %s left the lobby, seat reopened", r.Code, playerID)
		r.bumpAndBroadcast()
		return
	}
	log.Infof("room %s: player %s disconnected mid-game, seat held", r.Code, playerID)
	r.broadcastLocked()
}

// Empty reports whether no human seat remains connected.
func (r *Room) Empty() bool {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	for _, p := range r.Players {
		if !p.IsBot && p.Connected {
			return false
		}
	}
	return true
}

// beginDeal resets per-round state, deals 17/17/17 with a 3-card kitty, picks
// a random first bidder and schedules the Dealing->Bidding transition.
// Assumes Mu is held.
func (r *Room) beginDeal() {
	r.Phase = PhaseDealing
	r.LandlordID = uuid.Nil
	r.BaseBid = 0
	r.Multiplier = 1
	r.LastPlayedCards = nil
	r.LastPlayerID = uuid.Nil
	r.WinnerID = uuid.Nil
	r.LaiziRank = models.RankNone
	r.bidsTaken = 0
	r.highestBidderID = uuid.Nil

	deck := r.shuffleFn()
	for i, p := range r.Players {
		p.Role = models.RoleNone
		p.LastAction = ""
		p.Ready = false
		p.Hand = append([]models.Card(nil), deck[i*17:(i+1)*17]...)
		models.SortHand(p.Hand)
	}
	r.KittyCards = append([]models.Card(nil), deck[51:]...)
	r.CurrentTurnIndex = rand.Intn(maxSeats)

	log.Infof("room %s: dealt, first bid to seat %d", r.Code, r.CurrentTurnIndex)
	r.bumpAndBroadcast()

	r.scheduleAfter(r.DealDelay, func() {
		if r.Phase != PhaseDealing {
			return
		}
		r.Phase = PhaseBidding
		r.bumpAndBroadcast()
		r.scheduleBotTurn()
	})
}

// assignLandlord settles the bidding outcome and opens play. Assumes Mu held.
func (r *Room) assignLandlord(landlordID uuid.UUID) {
	idx := -1
	for i, p := range r.Players {
		if p.ID == landlordID {
			idx = i
			p.Role = models.RoleLandlord
		} else {
			p.Role = models.RolePeasant
		}
	}
	if idx < 0 {
		return
	}
	landlord := r.Players[idx]
	r.LandlordID = landlordID
	if r.BaseBid == 0 {
		r.BaseBid = 1
	}

	landlord.Hand = append(landlord.Hand, r.KittyCards...)
	models.SortHand(landlord.Hand)

	if r.Config.EnableLaizi {
		r.LaiziRank = models.WildcardRanks[rand.Intn(len(models.WildcardRanks))]
	}

	r.Phase = PhasePlaying
	r.CurrentTurnIndex = idx
	r.LastPlayedCards = nil
	r.LastPlayerID = uuid.Nil

	log.Infof("room %s: landlord %s at base bid %d, laizi=%s", r.Code, landlordID, r.BaseBid, r.LaiziRank.Label())
	r.bumpAndBroadcast()
	r.scheduleBotTurn()
}

// advancePlayTurn rotates to the next seat; when play returns to the last
// player unchallenged, the table clears and they lead freely. Assumes Mu held.
func (r *Room) advancePlayTurn() {
	r.CurrentTurnIndex = (r.CurrentTurnIndex + 1) % maxSeats
	if cur := r.currentPlayer(); cur != nil && cur.ID == r.LastPlayerID {
		r.LastPlayedCards = nil
		r.LastPlayerID = uuid.Nil
	}
}

// settle computes the round's bean movement and ends the game. Assumes Mu held.
func (r *Room) settle(winner *models.Player) {
	r.Phase = PhaseGameOver
	r.WinnerID = winner.ID

	stake := r.BaseBid * r.Multiplier * baseStake
	deltas := make(map[uuid.UUID]int, maxSeats)
	landlordWon := winner.Role == models.RoleLandlord
	for _, p := range r.Players {
		var d int
		switch {
		case p.Role == models.RoleLandlord && landlordWon:
			d = 2 * stake
		case p.Role == models.RoleLandlord:
			d = -2 * stake
		case landlordWon:
			d = -stake
		default:
			d = stake
		}
		p.Beans += d
		p.Ready = false
		deltas[p.ID] = d
	}

	log.Infof("room %s: game over, winner %s (%s), stake %d", r.Code, winner.ID, winner.Role, stake)
	r.bumpAndBroadcast()

	if r.OnGameEnd != nil {
		res := Result{
			RoundID:     uuid.New(),
			RoomID:      r.ID,
			RoomCode:    r.Code,
			WinnerID:    winner.ID,
			LandlordID:  r.LandlordID,
			LandlordWon: landlordWon,
			BaseBid:     r.BaseBid,
			Multiplier:  r.Multiplier,
			Deltas:      deltas,
		}
		for _, p := range r.Players {
			if !p.IsBot {
				res.Humans = append(res.Humans, p.ID)
			}
		}
		r.OnGameEnd(res)
	}
}

// scheduleBotTurn arms the bot decision timer when the acting seat is a bot.
// The callback is keyed to the current Version: if any other action lands
// first, the decision is stale and discarded. Assumes Mu held.
func (r *Room) scheduleBotTurn() {
	if r.Phase != PhaseBidding && r.Phase != PhasePlaying {
		return
	}
	p := r.currentPlayer()
	if p == nil || !p.IsBot {
		return
	}

	phase := r.Phase
	botID := p.ID
	hand := append([]models.Card(nil), p.Hand...)
	var last []models.Card
	if r.LastPlayerID != uuid.Nil && r.LastPlayerID != botID {
		last = append(last, r.LastPlayedCards...)
	}
	laizi := r.LaiziRank

	r.scheduleAfter(r.BotDelay, func() {
		if r.Phase != phase {
			return
		}
		cur := r.currentPlayer()
		if cur == nil || cur.ID != botID {
			return
		}
		switch phase {
		case PhaseBidding:
			r.handleBidLocked(botID, bot.BidAmount(hand))
		case PhasePlaying:
			move := bot.ChooseMove(hand, last, laizi)
			ids := make([]int, len(move))
			for i, c := range move {
				ids[i] = c.ID
			}
			r.handlePlayLocked(botID, ids)
		}
	})
}

// scheduleAfter runs fn after d, under Mu, only if the room state has not
// moved on in the meantime. A non-positive delay runs fn synchronously,
// which keeps tests deterministic. Assumes Mu held.
func (r *Room) scheduleAfter(d time.Duration, fn func()) {
	if d <= 0 {
		fn()
		return
	}
	version := r.Version
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(d, func() {
		r.Mu.Lock()
		defer r.Mu.Unlock()
		if r.Version != version {
			log.Debugf("room %s: stale timer for version %d (now %d) discarded", r.Code, version, r.Version)
			return
		}
		fn()
	})
}

// bumpAndBroadcast records an accepted game-state mutation and fans the new
// state out. Assumes Mu held.
func (r *Room) bumpAndBroadcast() {
	r.Version++
	r.broadcastLocked()
}

// broadcastLocked ships a fresh per-viewer snapshot to every connected human
// seat. Assumes Mu held.
func (r *Room) broadcastLocked() {
	r.seq++
	if r.BroadcastFn == nil {
		return
	}
	snaps := make(map[uuid.UUID]Snapshot, len(r.Players))
	for _, p := range r.Players {
		if p.IsBot || !p.Connected {
			continue
		}
		snaps[p.ID] = r.snapshotLocked(p.ID)
	}
	r.BroadcastFn(snaps, r.snapshotLocked(uuid.Nil))
}

// peekCards resolves card IDs against the player's hand without removing
// them. Assumes Mu held.
func (r *Room) peekCards(p *models.Player, cardIDs []int) ([]models.Card, bool) {
	seen := make(map[int]bool, len(cardIDs))
	cards := make([]models.Card, 0, len(cardIDs))
	for _, id := range cardIDs {
		if seen[id] {
			return nil, false
		}
		seen[id] = true
		found := false
		for _, c := range p.Hand {
			if c.ID == id {
				cards = append(cards, c)
				found = true
				break
			}
		}
		if !found {
			return nil, false
		}
	}
	return cards, true
}

func (r *Room) currentPlayer() *models.Player {
	if r.CurrentTurnIndex < 0 || r.CurrentTurnIndex >= len(r.Players) {
		return nil
	}
	return r.Players[r.CurrentTurnIndex]
}

func (r *Room) playerByID(id uuid.UUID) *models.Player {
	for _, p := range r.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func bidLabel(amount int) string {
	if amount == 0 {
		return "pass"
	}
	return fmt.Sprintf("bid %d", amount)
}

func playLabel(cards []models.Card, laizi models.Rank) string {
	play, ok := rules.Classify(cards, laizi)
	if !ok {
		return ""
	}
	switch play.Kind {
	case rules.KindRocket:
		return "rocket"
	case rules.KindBomb:
		return "bomb"
	default:
		labels := make([]string, len(cards))
		for i, c := range cards {
			labels[i] = c.Label
		}
		return strings.Join(labels, " ")
	}
}
