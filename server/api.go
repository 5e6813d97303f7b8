package server

import (
	"github.com/Abraxas-365/crmturbo/auth"
	"github.com/Abraxas-365/crmturbo/conversation"
	"github.com/Abraxas-365/crmturbo/errx"
	"github.com/Abraxas-365/crmturbo/storex"
	"github.com/gofiber/fiber/v2"
)

const sessionLocal = "session"

func (s *Server) authMiddleware(c *fiber.Ctx) error {
	session, err := auth.Authenticate(c.UserContext(), s.deps.Verifier, c.Get(fiber.HeaderAuthorization))
	if err != nil {
		if errx.IsType(err, errx.TypeInternal) {
			return err
		}
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "error": "Unauthorized"})
	}

	c.Locals(sessionLocal, session)
	c.SetUserContext(auth.WithSession(c.UserContext(), session))
	return c.Next()
}

func sessionFrom(c *fiber.Ctx) auth.Session {
	session, _ := c.Locals(sessionLocal).(auth.Session)
	return session
}

func pageOptions(c *fiber.Ctx) storex.PaginationOptions {
	return storex.PaginationOptions{
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", storex.DefaultPageSize),
	}
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid JSON body")
	}
	return nil
}

func (s *Server) handleListConversations(c *fiber.Ctx) error {
	page, err := s.deps.Conversations.List(c.UserContext(), sessionFrom(c), pageOptions(c))
	if err != nil {
		return err
	}
	return c.JSON(page)
}

func (s *Server) handleOpenConversation(c *fiber.Ctx) error {
	return s.setOpen(c, true)
}

func (s *Server) handleCloseConversation(c *fiber.Ctx) error {
	return s.setOpen(c, false)
}

func (s *Server) setOpen(c *fiber.Ctx, open bool) error {
	id, err := conversation.ParseID(c.Params("id"))
	if err != nil {
		return err
	}

	var conv *conversation.Conversation
	if open {
		conv, err = s.deps.Conversations.Open(c.UserContext(), sessionFrom(c), id)
	} else {
		conv, err = s.deps.Conversations.Close(c.UserContext(), sessionFrom(c), id)
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": conv})
}

func (s *Server) handleBindInstance(c *fiber.Ctx) error {
	name := c.Params("name")
	if err := s.deps.Conversations.BindInstance(c.UserContext(), sessionFrom(c), name); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "instance": name})
}

func (s *Server) handleStartConversation(c *fiber.Ctx) error {
	var in conversation.StartInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	conv, err := s.deps.Conversations.Start(c.UserContext(), sessionFrom(c), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": conv})
}

func (s *Server) handleListMessages(c *fiber.Ctx) error {
	id, err := conversation.ParseID(c.Params("id"))
	if err != nil {
		return err
	}
	page, err := s.deps.Conversations.Messages(c.UserContext(), sessionFrom(c), id, pageOptions(c))
	if err != nil {
		return err
	}
	return c.JSON(page)
}

func (s *Server) handleSendMessage(c *fiber.Ctx) error {
	id, err := conversation.ParseID(c.Params("id"))
	if err != nil {
		return err
	}
	var in conversation.SendInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	msg, err := s.deps.Conversations.Send(c.UserContext(), sessionFrom(c), id, in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": msg})
}

func (s *Server) handleListTemplates(c *fiber.Ctx) error {
	page, err := s.deps.Conversations.Templates(c.UserContext(), sessionFrom(c), pageOptions(c))
	if err != nil {
		return err
	}
	return c.JSON(page)
}

func (s *Server) handleCreateTemplate(c *fiber.Ctx) error {
	var in conversation.TemplateInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	tpl, err := s.deps.Conversations.CreateTemplate(c.UserContext(), sessionFrom(c), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": tpl})
}
