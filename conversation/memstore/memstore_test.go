package memstore

import (
	"testing"

	"github.com/Abraxas-365/crmturbo/conversation"
	"github.com/Abraxas-365/crmturbo/conversation/conversationtest"
)

func TestStore(t *testing.T) {
	conversationtest.Run(t, func(*testing.T) conversation.Store { return New() })
}
