package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/jjenkins/camara/internal/pagination"
)

// GetByIDHandler serves a single entity looked up by the :id path parameter.
// get is a method expression such as PartyQueries.GetByID.
func GetByIDHandler[Q, T any](q Q, get func(Q, context.Context, int) (*T, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathInt(c, "id")
		if err != nil {
			return err
		}
		item, err := get(q, c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(item)
	}
}

// ListHandler serves a filtered, paginated listing. The filter type F is
// bound from the query string alongside page and per_page.
func ListHandler[Q, F, T any](q Q, list func(Q, context.Context, F, pagination.Params) (pagination.Page[T], error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var filter F
		if err := bindQuery(c, &filter); err != nil {
			return err
		}
		p, err := pageParams(c)
		if err != nil {
			return err
		}
		page, err := list(q, c.UserContext(), filter, p)
		if err != nil {
			return err
		}
		return c.JSON(page)
	}
}

func pageParams(c *fiber.Ctx) (pagination.Params, error) {
	var p pagination.Params
	if err := bindQuery(c, &p); err != nil {
		return p, err
	}
	return p.Normalize(), nil
}

// LegislatorSummaryHandler serves a legislator's participation and spending
// for ?year (default 2024).
func LegislatorSummaryHandler(legislators LegislatorQueries) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathInt(c, "id")
		if err != nil {
			return err
		}
		var q yearQuery
		if err := bindQuery(c, &q); err != nil {
			return err
		}
		summary, err := legislators.Summary(c.UserContext(), id, yearOr(q.Year))
		if err != nil {
			return err
		}
		return c.JSON(summary)
	}
}

func LegislatorVotesHandler(votes VoteQueries) fiber.Handler {
	return pagedByID(votes, VoteQueries.ByLegislator)
}

func BillVotesHandler(votes VoteQueries) fiber.Handler {
	return pagedByID(votes, VoteQueries.ByBill)
}

func pagedByID[Q, T any](q Q, fetch func(Q, context.Context, int, pagination.Params) (pagination.Page[T], error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathInt(c, "id")
		if err != nil {
			return err
		}
		p, err := pageParams(c)
		if err != nil {
			return err
		}
		page, err := fetch(q, c.UserContext(), id, p)
		if err != nil {
			return err
		}
		return c.JSON(page)
	}
}

// PartyLegislatorsHandler lists the legislators of the party named by
// :acronym.
func PartyLegislatorsHandler(legislators LegislatorQueries) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := pageParams(c)
		if err != nil {
			return err
		}
		page, err := legislators.ListByParty(c.UserContext(), c.Params("acronym"), p)
		if err != nil {
			return err
		}
		return c.JSON(page)
	}
}

// BillSessionsHandler lists every voting session that considered a bill.
func BillSessionsHandler(bills BillQueries) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathInt(c, "id")
		if err != nil {
			return err
		}
		sessions, err := bills.Sessions(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(sessions)
	}
}
