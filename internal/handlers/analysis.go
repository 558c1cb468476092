package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// PartyCohesionHandler reports how a party's members split in one session.
func PartyCohesionHandler(crosstab CrossTabQueries) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID, err := pathInt(c, "session_id")
		if err != nil {
			return err
		}
		cohesion, err := crosstab.PartyCohesion(c.UserContext(), c.Params("acronym"), sessionID)
		if err != nil {
			return err
		}
		return c.JSON(cohesion)
	}
}

func FloorSpendingHandler(crosstab CrossTabQueries) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var q floorSpendingQuery
		if err := bindQuery(c, &q); err != nil {
			return err
		}
		rows, err := crosstab.SpendingByFloor(c.UserContext(), yearOr(q.Year), q.Building)
		if err != nil {
			return err
		}
		return c.JSON(rows)
	}
}

func FloorCompositionHandler(crosstab CrossTabQueries) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var q floorQuery
		if err := bindQuery(c, &q); err != nil {
			return err
		}
		rows, err := crosstab.PartyCompositionByFloor(c.UserContext(), q.Floor, q.Building)
		if err != nil {
			return err
		}
		return c.JSON(rows)
	}
}

func FloorProfileHandler(crosstab CrossTabQueries) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var q floorProfileQuery
		if err := bindQuery(c, &q); err != nil {
			return err
		}
		profile, err := crosstab.FloorProfile(c.UserContext(), q.Floor, yearOr(q.Year), q.Building)
		if err != nil {
			return err
		}
		return c.JSON(profile)
	}
}

func StateSpendingHandler(crosstab CrossTabQueries) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var q stateSpendingQuery
		if err := bindQuery(c, &q); err != nil {
			return err
		}
		rows, err := crosstab.StateSpending(c.UserContext(), yearOr(q.Year), q.State)
		if err != nil {
			return err
		}
		return c.JSON(rows)
	}
}
