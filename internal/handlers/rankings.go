package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// ExpenseRankingHandler ranks legislators by total spending in ?year.
func ExpenseRankingHandler(rankings RankingQueries) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var q yearQuery
		if err := bindQuery(c, &q); err != nil {
			return err
		}
		p, err := pageParams(c)
		if err != nil {
			return err
		}
		page, err := rankings.ExpenseRanking(c.UserContext(), yearOr(q.Year), p)
		if err != nil {
			return err
		}
		return c.JSON(page)
	}
}

func PartyExpenseRankingHandler(rankings RankingQueries) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var q yearQuery
		if err := bindQuery(c, &q); err != nil {
			return err
		}
		ranks, err := rankings.PartyExpenseRanking(c.UserContext(), yearOr(q.Year))
		if err != nil {
			return err
		}
		return c.JSON(ranks)
	}
}

func ParticipationRankingHandler(rankings RankingQueries) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := pageParams(c)
		if err != nil {
			return err
		}
		page, err := rankings.ParticipationRanking(c.UserContext(), p)
		if err != nil {
			return err
		}
		return c.JSON(page)
	}
}

// VoteTypeRankingHandler ranks parties by how often their members cast
// ?vote_type, optionally restricted to sessions registered in ?year.
func VoteTypeRankingHandler(rankings RankingQueries) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var q voteTypeQuery
		if err := bindQuery(c, &q); err != nil {
			return err
		}
		voteType, err := parseVoteType(q.VoteType)
		if err != nil {
			return err
		}
		p, err := pageParams(c)
		if err != nil {
			return err
		}
		page, err := rankings.VoteTypeRanking(c.UserContext(), voteType, q.Year, p)
		if err != nil {
			return err
		}
		return c.JSON(page)
	}
}

func AlignmentRankingHandler(rankings RankingQueries) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var q yearQuery
		if err := bindQuery(c, &q); err != nil {
			return err
		}
		year := yearOr(q.Year)
		ranks, err := rankings.AlignmentRanking(c.UserContext(), &year)
		if err != nil {
			return err
		}
		return c.JSON(ranks)
	}
}

func MostVotedBillsHandler(rankings RankingQueries) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var q limitQuery
		if err := bindQuery(c, &q); err != nil {
			return err
		}
		limit := q.Limit
		if limit == 0 {
			limit = defaultMostVotedMax
		}
		bills, err := rankings.MostVotedBills(c.UserContext(), limit)
		if err != nil {
			return err
		}
		return c.JSON(bills)
	}
}
