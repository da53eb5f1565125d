package server

import (
	"murmur/internal/models"
	"murmur/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreatePost handles POST /api/posts
// @Summary Publish a post
// @Description Publish a text, image or sale post; every follower is notified
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.PublishInput true "Post payload"
// @Success 201 {object} models.PostView
// @Failure 400 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req service.PublishInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.network.Publish(c.UserContext(), currentAccount(c).Name, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPosts handles GET /api/posts
// @Summary List posts
// @Description Every post in creation order
// @Tags posts
// @Produce json
// @Success 200 {array} models.PostView
// @Router /posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	return c.JSON(s.network.Posts())
}

// GetPost handles GET /api/posts/:id
// @Summary Get post
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.PostView
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.network.Post(id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// RenderPost handles GET /api/posts/:id/render
// @Summary Render post
// @Description The member-facing text of a post
// @Tags posts
// @Produce plain
// @Param id path int true "Post ID"
// @Success 200 {string} string
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/render [get]
func (s *Server) RenderPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	text, err := s.network.RenderPost(id)
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(text)
}

// GetPostMedia handles GET /api/posts/:id/media
// @Summary Display post media
// @Description Probe the picture behind an image post
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} media.Info
// @Failure 404 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /posts/{id}/media [get]
func (s *Server) GetPostMedia(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	info, err := s.network.DisplayMedia(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(info)
}

// LikePost handles POST /api/posts/:id/like
// @Summary Like a post
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} models.PostView
// @Failure 409 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /posts/{id}/like [post]
func (s *Server) LikePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.network.Like(c.UserContext(), id, currentAccount(c).Name); err != nil {
		return respondError(c, err)
	}
	return s.respondPost(c, id)
}

// CommentOnPost handles POST /api/posts/:id/comments
// @Summary Comment on a post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body object{text=string} true "Comment"
// @Success 201 {object} models.PostView
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/comments [post]
func (s *Server) CommentOnPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := s.network.Comment(c.UserContext(), id, currentAccount(c).Name, req.Text); err != nil {
		return respondError(c, err)
	}
	c.Status(fiber.StatusCreated)
	return s.respondPost(c, id)
}

// DiscountPost handles POST /api/posts/:id/discount
// @Summary Discount a sale post
// @Description Lower the price by a percentage; requires the owner's password
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body object{percent=number,password=string} true "Discount"
// @Success 200 {object} models.PostView
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /posts/{id}/discount [post]
func (s *Server) DiscountPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Percent  float64 `json:"percent"`
		Password string  `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := s.network.Discount(c.UserContext(), id, req.Percent, req.Password); err != nil {
		return respondError(c, err)
	}
	return s.respondPost(c, id)
}

// MarkPostSold handles POST /api/posts/:id/sold
// @Summary Mark a sale post as sold
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body object{password=string} true "Owner credential"
// @Success 200 {object} models.PostView
// @Failure 401 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /posts/{id}/sold [post]
func (s *Server) MarkPostSold(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := s.network.MarkSold(c.UserContext(), id, req.Password); err != nil {
		return respondError(c, err)
	}
	return s.respondPost(c, id)
}

func (s *Server) respondPost(c *fiber.Ctx, id uint) error {
	post, err := s.network.Post(id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}
