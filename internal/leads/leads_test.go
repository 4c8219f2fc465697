package leads_test

import (
	"testing"

	"github.com/motorsoft/msadmin-bot/internal/leads"
	"github.com/stretchr/testify/assert"
)

func TestRequestMessage(t *testing.T) {
	t.Parallel()

	t.Run("complete request", func(t *testing.T) {
		t.Parallel()
		request := leads.Request{
			Name:           "Ivan",
			Email:          "ivan@example.com",
			Phone:          "+490000000",
			City:           "Berlin",
			Brand:          "Volkswagen",
			Model:          "Golf 7",
			Year:           "2017",
			Engine:         "2.0 TDI",
			Power:          "150",
			ContactMethods: []string{"Telegram", "Phone call"},
			Comment:        "Interested in stage2",
		}

		message := request.Message()

		assert.Contains(t, message, "CHIP-TUNING PRICE REQUEST")
		assert.Contains(t, message, "• Name: Ivan")
		assert.Contains(t, message, "• Brand: Volkswagen")
		assert.Contains(t, message, "• Power: 150 hp")
		assert.Contains(t, message, "Telegram, Phone call")
		assert.Contains(t, message, "Interested in stage2")
	})

	t.Run("empty optional fields get placeholders", func(t *testing.T) {
		t.Parallel()
		request := leads.Request{
			Name:  "Ivan",
			Phone: "+490000000",
			Brand: "BMW",
			Model: "320d",
		}

		message := request.Message()

		assert.Contains(t, message, "• Year: Not specified")
		assert.Contains(t, message, "• Email: Not specified")
		assert.Contains(t, message, "📞 *Preferred contact method:*\nNot specified")
		assert.Contains(t, message, "💬 *Comment:*\nNone")
	})
}
