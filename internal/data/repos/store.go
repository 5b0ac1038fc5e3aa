package repos

import (
	"gorm.io/gorm"

	"github.com/pckassistant/graph-engine/internal/pkg/logger"
)

// Store bundles every repository the graph engine's write and read paths
// depend on, so callers wire one value instead of eight.
type Store struct {
	Entities       EntityRepo
	Contributions  ContributionRepo
	Trajectories   TrajectoryRepo
	Events         EventRepo
	Edges          EdgeRepo
	Cooccurrences  CooccurrenceRepo
	Conversations  ConversationRepo
	Messages       MessageRepo

	DB *gorm.DB
}

func NewStore(db *gorm.DB, log *logger.Logger) *Store {
	return &Store{
		Entities:      NewEntityRepo(db, log),
		Contributions: NewContributionRepo(db, log),
		Trajectories:  NewTrajectoryRepo(db, log),
		Events:        NewEventRepo(db, log),
		Edges:         NewEdgeRepo(db, log),
		Cooccurrences: NewCooccurrenceRepo(db, log),
		Conversations: NewConversationRepo(db, log),
		Messages:      NewMessageRepo(db, log),
		DB:            db,
	}
}
