package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"inmuebles_console/internal/auth"
	"inmuebles_console/internal/gate"
	"inmuebles_console/pkg/utils/jwt"
)

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthController struct {
	auth auth.Service
	gate *gate.Gate
}

func NewAuthController(svc auth.Service, g *gate.Gate) *AuthController {
	return &AuthController{auth: svc, gate: g}
}

// Login checks credentials against the auth provider. Bad credentials are
// reported inline; whether the account actually reaches the dashboard is the
// access gate's decision, visible via GET /session.
func (ac *AuthController) Login(c *fiber.Ctx) error {
	input := new(LoginInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	identity, err := ac.auth.SignIn(c.Context(), input.Email, input.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Credenciales incorrectas. Por favor, inténtalo de nuevo.",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not sign in",
		})
	}

	token, err := jwt.GenerateToken(identity.UID, identity.Email)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not generate token",
		})
	}

	state, message := ac.gate.Current()
	return c.JSON(fiber.Map{
		"token": token,
		"state": state,
		"error": message,
	})
}

// Logout signs the current session out.
func (ac *AuthController) Logout(c *fiber.Ctx) error {
	ac.auth.SignOut()
	return c.SendStatus(fiber.StatusNoContent)
}

// Session reports which screen is visible and any login-screen message.
func (ac *AuthController) Session(c *fiber.Ctx) error {
	state, message := ac.gate.Current()
	return c.JSON(fiber.Map{
		"state": state,
		"error": message,
	})
}
