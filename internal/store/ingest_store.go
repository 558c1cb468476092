package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/jjenkins/camara/internal/model"
)

// IngestStore writes data fetched from the open-data API. Every save is
// idempotent: rows are keyed by their upstream identifiers.
type IngestStore struct {
	db *DB
}

// NewIngestStore creates a new IngestStore
func NewIngestStore(db *DB) *IngestStore {
	return &IngestStore{db: db}
}

// LegislatorRef is the part of a stored legislator the importer needs to
// attach votes and expenses.
type LegislatorRef struct {
	ID           int
	PartyAcronym string
}

// ErrUnknownReference is returned when a row points at a parent that was not
// imported.
var ErrUnknownReference = errors.New("referenced row does not exist")

// isForeignKeyViolation reports whether err is a PostgreSQL foreign key
// violation (SQLSTATE 23503).
func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}

// SaveParty upserts a party by its upstream id and sets p.ID.
func (s *IngestStore) SaveParty(ctx context.Context, p *model.Party) error {
	query := `
		INSERT INTO parties (external_id, acronym, name, logo_url, legislature_id, status, total_members, total_sworn_in)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (external_id) DO UPDATE SET
			acronym = EXCLUDED.acronym,
			name = EXCLUDED.name,
			logo_url = EXCLUDED.logo_url,
			legislature_id = EXCLUDED.legislature_id,
			status = EXCLUDED.status,
			total_members = EXCLUDED.total_members,
			total_sworn_in = EXCLUDED.total_sworn_in
		RETURNING id
	`

	err := s.db.Write(ctx, "ingest.party", func(q Execer) error {
		return q.QueryRowContext(ctx, query,
			p.ExternalID,
			p.Acronym,
			p.Name,
			p.LogoURL,
			p.LegislatureID,
			p.Status,
			p.TotalMembers,
			p.TotalSwornIn,
		).Scan(&p.ID)
	})
	if err != nil {
		return fmt.Errorf("failed to save party %s: %w", p.Acronym, err)
	}

	return nil
}

// SaveLegislator upserts a legislator and, when present, its office in one
// transaction. It sets l.ID and l.Office.ID.
func (s *IngestStore) SaveLegislator(ctx context.Context, l *model.Legislator) error {
	query := `
		INSERT INTO legislators (external_id, civil_name, display_name, party_acronym, party_id, state, legislature_id, photo_url, sex)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (external_id) DO UPDATE SET
			civil_name = EXCLUDED.civil_name,
			display_name = EXCLUDED.display_name,
			party_acronym = EXCLUDED.party_acronym,
			party_id = EXCLUDED.party_id,
			state = EXCLUDED.state,
			legislature_id = EXCLUDED.legislature_id,
			photo_url = EXCLUDED.photo_url,
			sex = EXCLUDED.sex
		RETURNING id
	`

	officeQuery := `
		INSERT INTO offices (legislator_id, name, building, room, floor, phone, email)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (legislator_id) DO UPDATE SET
			name = EXCLUDED.name,
			building = EXCLUDED.building,
			room = EXCLUDED.room,
			floor = EXCLUDED.floor,
			phone = EXCLUDED.phone,
			email = EXCLUDED.email
		RETURNING id
	`

	err := s.db.Write(ctx, "ingest.legislator", func(q Execer) error {
		err := q.QueryRowContext(ctx, query,
			l.ExternalID,
			l.CivilName,
			l.DisplayName,
			l.PartyAcronym,
			l.PartyID,
			l.State,
			l.LegislatureID,
			l.PhotoURL,
			l.Sex,
		).Scan(&l.ID)
		if err != nil {
			return err
		}

		if l.Office == nil {
			return nil
		}
		o := l.Office
		o.LegislatorID = l.ID
		return q.QueryRowContext(ctx, officeQuery,
			o.LegislatorID, o.Name, o.Building, o.Room, o.Floor, o.Phone, o.Email,
		).Scan(&o.ID)
	})
	if isForeignKeyViolation(err) {
		return fmt.Errorf("legislator %d: %w", l.ExternalID, ErrUnknownReference)
	}
	if err != nil {
		return fmt.Errorf("failed to save legislator %d: %w", l.ExternalID, err)
	}

	return nil
}

// ReplaceExpenses swaps a legislator's expenses for year with expenses.
// Upstream rows carry no stable key, so the year is rewritten as a whole.
func (s *IngestStore) ReplaceExpenses(ctx context.Context, legislatorID, year int, expenses []model.Expense) error {
	insert := `
		INSERT INTO expenses (legislator_id, year, month, category, net_amount, document_code, document_type, document_url, supplier_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	err := s.db.Write(ctx, "ingest.expenses", func(q Execer) error {
		if _, err := q.ExecContext(ctx, "DELETE FROM expenses WHERE legislator_id = $1 AND year = $2", legislatorID, year); err != nil {
			return err
		}
		for _, e := range expenses {
			_, err := q.ExecContext(ctx, insert,
				legislatorID,
				e.Year,
				e.Month,
				e.Category,
				e.NetAmount,
				e.DocumentCode,
				e.DocumentType,
				e.DocumentURL,
				e.SupplierName,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save expenses of legislator %d for %d: %w", legislatorID, year, err)
	}

	return nil
}

// SaveSession upserts a voting session by its upstream id and sets vs.ID.
func (s *IngestStore) SaveSession(ctx context.Context, vs *model.VotingSession) error {
	query := `
		INSERT INTO voting_sessions (external_id, registered_at, description, committee, approval, last_opening_description, uri)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (external_id) DO UPDATE SET
			registered_at = EXCLUDED.registered_at,
			description = EXCLUDED.description,
			committee = EXCLUDED.committee,
			approval = EXCLUDED.approval,
			last_opening_description = EXCLUDED.last_opening_description,
			uri = EXCLUDED.uri
		RETURNING id
	`

	err := s.db.Write(ctx, "ingest.session", func(q Execer) error {
		return q.QueryRowContext(ctx, query,
			vs.ExternalID,
			vs.RegisteredAt,
			vs.Description,
			vs.Committee,
			vs.Approval,
			vs.LastOpeningDescription,
			vs.URI,
		).Scan(&vs.ID)
	})
	if err != nil {
		return fmt.Errorf("failed to save voting session %s: %w", vs.ExternalID, err)
	}

	return nil
}

// SaveBill upserts a bill by its upstream id and links it to sessionID.
func (s *IngestStore) SaveBill(ctx context.Context, b *model.Bill, sessionID int) error {
	query := `
		INSERT INTO bills (external_id, type_code, year, summary, presented_at, status, document_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (external_id) DO UPDATE SET
			type_code = EXCLUDED.type_code,
			year = EXCLUDED.year,
			summary = EXCLUDED.summary,
			presented_at = EXCLUDED.presented_at,
			status = EXCLUDED.status,
			document_url = EXCLUDED.document_url
		RETURNING id
	`

	linkQuery := `
		INSERT INTO bill_voting_sessions (bill_id, session_id)
		VALUES ($1, $2)
		ON CONFLICT (bill_id, session_id) DO NOTHING
	`

	err := s.db.Write(ctx, "ingest.bill", func(q Execer) error {
		err := q.QueryRowContext(ctx, query,
			b.ExternalID,
			b.TypeCode,
			b.Year,
			b.Summary,
			b.PresentedAt,
			b.Status,
			b.DocumentURL,
		).Scan(&b.ID)
		if err != nil {
			return err
		}
		_, err = q.ExecContext(ctx, linkQuery, b.ID, sessionID)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to save bill %s: %w", b.ExternalID, err)
	}

	return nil
}

// SaveVotes upserts the votes of one session, one row per legislator.
func (s *IngestStore) SaveVotes(ctx context.Context, votes []model.Vote) error {
	query := `
		INSERT INTO votes (session_id, legislator_id, vote_type, registered_at, party_acronym_snapshot, legislator_uri, session_uri)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (session_id, legislator_id) DO UPDATE SET
			vote_type = EXCLUDED.vote_type,
			registered_at = EXCLUDED.registered_at,
			party_acronym_snapshot = EXCLUDED.party_acronym_snapshot,
			legislator_uri = EXCLUDED.legislator_uri,
			session_uri = EXCLUDED.session_uri
	`

	err := s.db.Write(ctx, "ingest.votes", func(q Execer) error {
		for _, v := range votes {
			_, err := q.ExecContext(ctx, query,
				v.SessionID,
				v.LegislatorID,
				v.VoteType,
				v.RegisteredAt,
				v.PartySnapshot,
				v.LegislatorURI,
				v.SessionURI,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if isForeignKeyViolation(err) {
		return fmt.Errorf("votes: %w", ErrUnknownReference)
	}
	if err != nil {
		return fmt.Errorf("failed to save votes: %w", err)
	}

	return nil
}

// PartyIDs maps every stored party acronym to its id.
func (s *IngestStore) PartyIDs(ctx context.Context) (map[string]int, error) {
	ids := make(map[string]int)
	err := s.db.Read(ctx, "ingest.party_ids", func(q Querier) error {
		rows, err := q.QueryContext(ctx, "SELECT acronym, id FROM parties")
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var acronym string
			var id int
			if err := rows.Scan(&acronym, &id); err != nil {
				return err
			}
			ids[acronym] = id
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load party ids: %w", err)
	}

	return ids, nil
}

// Legislators maps every stored legislator's upstream id to its reference.
func (s *IngestStore) Legislators(ctx context.Context) (map[int]LegislatorRef, error) {
	refs := make(map[int]LegislatorRef)
	err := s.db.Read(ctx, "ingest.legislator_refs", func(q Querier) error {
		rows, err := q.QueryContext(ctx, "SELECT external_id, id, party_acronym FROM legislators")
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var externalID int
			var ref LegislatorRef
			if err := rows.Scan(&externalID, &ref.ID, &ref.PartyAcronym); err != nil {
				return err
			}
			refs[externalID] = ref
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load legislator refs: %w", err)
	}

	return refs, nil
}
