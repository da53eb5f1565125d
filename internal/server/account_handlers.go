package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetNetworkSummary handles GET /api/network
// @Summary Network summary
// @Description Plain-text listing of every account with its post and follower counts
// @Tags network
// @Produce plain
// @Success 200 {string} string
// @Router /network [get]
func (s *Server) GetNetworkSummary(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(s.network.RenderNetworkSummary())
}

// GetAccounts handles GET /api/accounts
// @Summary List accounts
// @Tags accounts
// @Produce json
// @Success 200 {array} models.AccountView
// @Router /accounts [get]
func (s *Server) GetAccounts(c *fiber.Ctx) error {
	return c.JSON(s.network.Accounts())
}

// GetAccount handles GET /api/accounts/:name
// @Summary Get account
// @Tags accounts
// @Produce json
// @Param name path string true "Account name"
// @Success 200 {object} models.AccountView
// @Failure 404 {object} models.ErrorResponse
// @Router /accounts/{name} [get]
func (s *Server) GetAccount(c *fiber.Ctx) error {
	account, err := s.network.Account(c.Params("name"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(account)
}

// GetFollowers handles GET /api/accounts/:name/followers
// @Summary List followers
// @Tags accounts
// @Produce json
// @Param name path string true "Account name"
// @Success 200 {array} string
// @Failure 404 {object} models.ErrorResponse
// @Router /accounts/{name}/followers [get]
func (s *Server) GetFollowers(c *fiber.Ctx) error {
	names, err := s.network.Followers(c.Params("name"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(names)
}

// GetFollowing handles GET /api/accounts/:name/following
// @Summary List followed accounts
// @Tags accounts
// @Produce json
// @Param name path string true "Account name"
// @Success 200 {array} string
// @Failure 404 {object} models.ErrorResponse
// @Router /accounts/{name}/following [get]
func (s *Server) GetFollowing(c *fiber.Ctx) error {
	names, err := s.network.Following(c.Params("name"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(names)
}

// GetAccountPosts handles GET /api/accounts/:name/posts
// @Summary List an account's posts
// @Tags accounts
// @Produce json
// @Param name path string true "Account name"
// @Success 200 {array} models.PostView
// @Failure 404 {object} models.ErrorResponse
// @Router /accounts/{name}/posts [get]
func (s *Server) GetAccountPosts(c *fiber.Ctx) error {
	posts, err := s.network.PostsBy(c.Params("name"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// Follow handles POST /api/accounts/:name/follow
// @Summary Follow an account
// @Tags accounts
// @Produce json
// @Security BearerAuth
// @Param name path string true "Account to follow"
// @Success 200 {object} object{following=[]string}
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /accounts/{name}/follow [post]
func (s *Server) Follow(c *fiber.Ctx) error {
	me := currentAccount(c)
	if err := s.network.Follow(c.UserContext(), me.Name, c.Params("name")); err != nil {
		return respondError(c, err)
	}
	return s.respondFollowing(c, me.Name)
}

// Unfollow handles DELETE /api/accounts/:name/follow
// @Summary Unfollow an account
// @Tags accounts
// @Produce json
// @Security BearerAuth
// @Param name path string true "Account to unfollow"
// @Success 200 {object} object{following=[]string}
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /accounts/{name}/follow [delete]
func (s *Server) Unfollow(c *fiber.Ctx) error {
	me := currentAccount(c)
	if err := s.network.Unfollow(c.UserContext(), me.Name, c.Params("name")); err != nil {
		return respondError(c, err)
	}
	return s.respondFollowing(c, me.Name)
}

func (s *Server) respondFollowing(c *fiber.Ctx, name string) error {
	following, err := s.network.Following(name)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"following": following})
}
