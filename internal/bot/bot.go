package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"digistore-bot/internal/models"
	"digistore-bot/internal/payment"
	"digistore-bot/internal/service"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"
)

type Bot struct {
	Instance *telego.Bot
	Users    *service.UserService
	Products *service.ProductService
	Orders   *service.OrderService
	Gateways payment.Registry
	AdminIDs []int64

	handler *th.BotHandler
}

func NewBot(token string, users *service.UserService, products *service.ProductService, orders *service.OrderService, gateways payment.Registry, adminIDs []int64) (*Bot, error) {
	tgBot, err := telego.NewBot(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	return &Bot{
		Instance: tgBot,
		Users:    users,
		Products: products,
		Orders:   orders,
		Gateways: gateways,
		AdminIDs: adminIDs,
	}, nil
}

func (b *Bot) Start() {
	updates, _ := b.Instance.UpdatesViaLongPolling(context.Background(), nil)

	handler, _ := th.NewBotHandler(b.Instance, updates)
	b.handler = handler

	// /start command, with optional referral code argument
	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		message := update.Message

		referrerCode := ""
		if parts := strings.Split(message.Text, " "); len(parts) > 1 {
			referrerCode = parts[1]
		}

		user, err := b.Users.FindOrCreate(identityFrom(message.From), referrerCode)
		if err != nil {
			log.Printf("Failed to get/create user: %v", err)
			return nil
		}
		if user.IsBanned {
			return nil
		}
		_ = b.Users.UpdateActivity(user.TelegramID)

		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(message.Chat.ID),
			fmt.Sprintf("Hi, %s! 👋\n\nWelcome to the store. Pick something from the catalog and pay with Telegram Stars or crypto.", user.DisplayName()),
		).WithReplyMarkup(mainKeyboard()))
		return nil
	}, th.CommandEqual("start"))

	// /orders command
	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		b.sendOrderHistory(ctx, update.Message.From.ID)
		return nil
	}, th.CommandEqual("orders"))

	// /admin command, silently ignored for everyone else
	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		message := update.Message
		if !b.isAdmin(message.From.ID) {
			return nil
		}

		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(message.Chat.ID), b.adminSummary(),
		).WithParseMode(telego.ModeMarkdown))
		return nil
	}, th.CommandEqual("admin"))

	// Callback: show catalog categories
	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		callback := update.CallbackQuery

		categories, err := b.Products.Categories()
		if err != nil || len(categories) == 0 {
			_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(tu.ID(callback.From.ID), "🛍 The catalog is empty right now, check back later."))
			_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
			return nil
		}

		rows := make([][]telego.InlineKeyboardButton, 0, len(categories)+1)
		for _, category := range categories {
			rows = append(rows, tu.InlineKeyboardRow(
				tu.InlineKeyboardButton(categoryTitle(category)).WithCallbackData("cat_"+string(category)),
			))
		}
		rows = append(rows, tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("« Back").WithCallbackData("back_main"),
		))

		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(callback.From.ID),
			"🛍 *Catalog*\n\nChoose a category:",
		).WithParseMode(telego.ModeMarkdown).WithReplyMarkup(tu.InlineKeyboard(rows...)))
		_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
		return nil
	}, th.CallbackDataEqual("catalog"))

	// Callback: list products in a category
	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		callback := update.CallbackQuery
		category := models.ProductCategory(strings.TrimPrefix(callback.Data, "cat_"))

		products, err := b.Products.Available(category)
		if err != nil {
			log.Printf("Failed to list products for %s: %v", category, err)
			_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
			return nil
		}
		if len(products) == 0 {
			_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(tu.ID(callback.From.ID), "😔 Nothing in stock here right now."))
			_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
			return nil
		}

		rows := make([][]telego.InlineKeyboardButton, 0, len(products)+1)
		for _, product := range products {
			label := fmt.Sprintf("%s - %s", product.Name, product.FormattedPrice())
			rows = append(rows, tu.InlineKeyboardRow(
				tu.InlineKeyboardButton(label).WithCallbackData("prod_"+strconv.FormatUint(uint64(product.ID), 10)),
			))
		}
		rows = append(rows, tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("« Back").WithCallbackData("catalog"),
		))

		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(callback.From.ID),
			fmt.Sprintf("%s\n\nPick a product:", categoryTitle(category)),
		).WithReplyMarkup(tu.InlineKeyboard(rows...)))
		_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
		return nil
	}, th.CallbackDataPrefix("cat_"))

	// Callback: product card with payment buttons
	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		callback := update.CallbackQuery
		product, err := b.productFromCallback(callback.Data, "prod_")
		if err != nil {
			_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(tu.ID(callback.From.ID), "❌ This product is no longer available."))
			_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
			return nil
		}

		msg := fmt.Sprintf("*%s*\n\n%s\n\n💵 Price: %s", product.Name, product.Description, product.FormattedPrice())
		if product.StockCount != nil {
			msg += fmt.Sprintf("\n📦 In stock: %d", *product.StockCount)
		}

		id := strconv.FormatUint(uint64(product.ID), 10)
		rows := make([][]telego.InlineKeyboardButton, 0, 3)
		if _, err := b.Gateways.Get(models.GatewayTelegramStars); err == nil {
			rows = append(rows, tu.InlineKeyboardRow(
				tu.InlineKeyboardButton("⭐ Pay with Stars").WithCallbackData("buy_stars_"+id),
			))
		}
		if _, err := b.Gateways.Get(models.GatewayCryptomus); err == nil {
			rows = append(rows, tu.InlineKeyboardRow(
				tu.InlineKeyboardButton("🪙 Pay with crypto").WithCallbackData("buy_crypto_"+id),
			))
		}
		rows = append(rows, tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("« Back").WithCallbackData("cat_"+string(product.Category)),
		))

		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(tu.ID(callback.From.ID), msg).
			WithParseMode(telego.ModeMarkdown).WithReplyMarkup(tu.InlineKeyboard(rows...)))
		_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
		return nil
	}, th.CallbackDataPrefix("prod_"))

	// Callback: buy with Telegram Stars
	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		callback := update.CallbackQuery
		telegramID := callback.From.ID

		order, product, err := b.placeOrder(telegramID, callback.Data, "buy_stars_", models.GatewayTelegramStars)
		if err != nil {
			b.reportOrderError(ctx, telegramID, err)
			_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
			return nil
		}

		gateway, err := b.Gateways.Get(models.GatewayTelegramStars)
		if err != nil {
			b.reportOrderError(ctx, telegramID, err)
			_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
			return nil
		}
		intent, err := gateway.CreatePayment(ctx.Context(), order)
		if err != nil {
			log.Printf("Failed to create stars payment for order %s: %v", order.OrderNumber, err)
			b.reportOrderError(ctx, telegramID, err)
			_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
			return nil
		}

		// Stars invoices carry whole-star amounts and no provider token.
		_, err = ctx.Bot().SendInvoice(ctx.Context(), &telego.SendInvoiceParams{
			ChatID:      tu.ID(telegramID),
			Title:       product.Name,
			Description: fmt.Sprintf("Order #%s", order.OrderNumber),
			Payload:     intent.PaymentID,
			Currency:    string(models.CurrencyXTR),
			Prices: []telego.LabeledPrice{
				{Label: product.Name, Amount: int(order.TotalPrice.IntPart())},
			},
		})
		if err != nil {
			log.Printf("Failed to send stars invoice for order %s: %v", order.OrderNumber, err)
			_ = b.Orders.Cancel(order.ID, "Invoice delivery failed")
			_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(tu.ID(telegramID), "❌ Could not create the invoice, please try again."))
		}
		_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
		return nil
	}, th.CallbackDataPrefix("buy_stars_"))

	// Callback: buy with crypto via Cryptomus
	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		callback := update.CallbackQuery
		telegramID := callback.From.ID

		order, product, err := b.placeOrder(telegramID, callback.Data, "buy_crypto_", models.GatewayCryptomus)
		if err != nil {
			b.reportOrderError(ctx, telegramID, err)
			_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
			return nil
		}

		gateway, err := b.Gateways.Get(models.GatewayCryptomus)
		if err != nil {
			b.reportOrderError(ctx, telegramID, err)
			_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
			return nil
		}
		intent, err := gateway.CreatePayment(ctx.Context(), order)
		if err != nil {
			log.Printf("Failed to create crypto payment for order %s: %v", order.OrderNumber, err)
			_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(tu.ID(telegramID), "❌ Could not create the payment, please try again."))
			_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
			return nil
		}

		keyboard := tu.InlineKeyboard(
			tu.InlineKeyboardRow(
				tu.InlineKeyboardButton("💳 Open payment page").WithURL(intent.PaymentURL),
			),
		)
		msg := fmt.Sprintf("🪙 *%s*\nOrder #%s for %s\n\nThe payment link is valid for 15 minutes. You will get your purchase here right after the payment is confirmed.",
			product.Name, order.OrderNumber, order.FormattedTotal())
		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(tu.ID(telegramID), msg).
			WithParseMode(telego.ModeMarkdown).WithReplyMarkup(keyboard))
		_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
		return nil
	}, th.CallbackDataPrefix("buy_crypto_"))

	// Callback: order history
	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		callback := update.CallbackQuery
		b.sendOrderHistory(ctx, callback.From.ID)
		_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
		return nil
	}, th.CallbackDataEqual("orders"))

	// Callback: profile with purchase stats and referral link
	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		callback := update.CallbackQuery
		telegramID := callback.From.ID

		user, err := b.Users.ByTelegramID(telegramID)
		if err != nil {
			_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(tu.ID(telegramID), "👤 Profile not found. Start with /start."))
			_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
			return nil
		}

		stats, err := b.Orders.UserStats(user.ID)
		if err != nil {
			log.Printf("Failed to load stats for user %d: %v", user.ID, err)
			_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
			return nil
		}

		msg := fmt.Sprintf("👤 *Your profile*\n\n🔹 ID: `%d`\n🔹 Orders: %d (completed %d)\n🔹 Total spent: %s\n🔹 Invited friends: %d",
			telegramID, stats.TotalOrders, stats.CompletedOrders,
			models.FormatAmount(stats.TotalSpent, models.CurrencyRUB), user.TotalReferred)

		if user.HasActiveTrial(time.Now()) {
			msg += fmt.Sprintf("\n🔹 Trial active until %s", user.TrialEnd.Format("02.01.2006"))
		}

		if info, err := b.Instance.GetMe(ctx.Context()); err == nil {
			msg += fmt.Sprintf("\n\n🤝 *Your referral link:*\n`https://t.me/%s?start=%s`", info.Username, user.ReferralCode)
		}

		rows := make([][]telego.InlineKeyboardButton, 0, 2)
		if !user.TrialUsed {
			rows = append(rows, tu.InlineKeyboardRow(
				tu.InlineKeyboardButton("🎁 Activate trial").WithCallbackData("trial"),
			))
		}
		rows = append(rows, tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("« Back").WithCallbackData("back_main"),
		))

		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(tu.ID(telegramID), msg).
			WithParseMode(telego.ModeMarkdown).WithReplyMarkup(tu.InlineKeyboard(rows...)))
		_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
		return nil
	}, th.CallbackDataEqual("profile"))

	// Callback: one-time trial activation
	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		callback := update.CallbackQuery
		telegramID := callback.From.ID

		user, err := b.Users.ByTelegramID(telegramID)
		if err != nil {
			_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
			return nil
		}

		switch err := b.Users.ActivateTrial(user.ID); {
		case err == nil:
			_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(tu.ID(telegramID),
				fmt.Sprintf("🎁 Trial activated for %d days, enjoy!", b.Users.TrialDurationDays)))
		case errors.Is(err, service.ErrInvalidState):
			_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(tu.ID(telegramID), "❌ You have already used your trial."))
		case errors.Is(err, service.ErrDisabled):
			_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(tu.ID(telegramID), "❌ Trials are not available right now."))
		default:
			log.Printf("Failed to activate trial for user %d: %v", user.ID, err)
			_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(tu.ID(telegramID), "❌ Something went wrong, please try again."))
		}
		_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
		return nil
	}, th.CallbackDataEqual("trial"))

	// Callback: back to the main menu
	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		callback := update.CallbackQuery
		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(callback.From.ID),
			"Welcome back! 👋\n\nPick something from the catalog.",
		).WithReplyMarkup(mainKeyboard()))
		_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
		return nil
	}, th.CallbackDataEqual("back_main"))

	// Pre-checkout: approve only while the order can still be paid
	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		query := update.PreCheckoutQuery

		order, err := b.Orders.ByPaymentID(query.InvoicePayload)
		ok := err == nil && order.Payable() && !order.Expired(time.Now())

		params := &telego.AnswerPreCheckoutQueryParams{
			PreCheckoutQueryID: query.ID,
			Ok:                 ok,
		}
		if !ok {
			params.ErrorMessage = "This order has expired, please place a new one."
		}
		if err := ctx.Bot().AnswerPreCheckoutQuery(ctx.Context(), params); err != nil {
			log.Printf("Failed to answer pre-checkout query: %v", err)
		}
		return nil
	}, th.AnyPreCheckoutQuery())

	// Successful Stars payment relayed to the gateway as a callback
	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		paid := update.Message.SuccessfulPayment

		gateway, err := b.Gateways.Get(models.GatewayTelegramStars)
		if err != nil {
			log.Printf("Successful payment received with stars gateway disabled: %s", paid.InvoicePayload)
			return nil
		}

		payload := map[string]interface{}{
			"payment_id":                 paid.InvoicePayload,
			"successful_payment":         true,
			"telegram_payment_charge_id": paid.TelegramPaymentChargeID,
		}
		if err := gateway.HandleCallback(ctx.Context(), payload); err != nil {
			log.Printf("Failed to process stars payment %s: %v", paid.InvoicePayload, err)
		}
		return nil
	}, func(_ context.Context, update telego.Update) bool {
		return update.Message != nil && update.Message.SuccessfulPayment != nil
	})

	handler.Start()
}

func (b *Bot) Stop() {
	if b.handler != nil {
		_ = b.handler.Stop()
	}
}

func (b *Bot) isAdmin(telegramID int64) bool {
	for _, id := range b.AdminIDs {
		if id == telegramID {
			return true
		}
	}
	return false
}

// adminSummary renders the store overview shown by the /admin command. The
// full management surface lives behind the REST API.
func (b *Bot) adminSummary() string {
	var sb strings.Builder
	sb.WriteString("🛠 *Store overview*\n")

	if stats, err := b.Users.Stats(); err == nil {
		sb.WriteString(fmt.Sprintf("\n👥 Users: %d (active %d, new today %d)",
			stats.TotalUsers, stats.ActiveUsers, stats.NewUsersToday))
	} else {
		log.Printf("Failed to load user stats: %v", err)
	}
	if stats, err := b.Products.Stats(); err == nil {
		sb.WriteString(fmt.Sprintf("\n🛍 Products: %d active of %d, out of stock %d",
			stats.ActiveProducts, stats.TotalProducts, stats.OutOfStock))
	} else {
		log.Printf("Failed to load product stats: %v", err)
	}
	if stats, err := b.Orders.Stats(); err == nil {
		sb.WriteString(fmt.Sprintf("\n📦 Orders: %d (pending %d, completed %d)\n💰 Revenue: %s today, %s total",
			stats.TotalOrders, stats.PendingOrders, stats.CompletedOrders,
			models.FormatAmount(stats.RevenueToday, models.CurrencyRUB),
			models.FormatAmount(stats.RevenueTotal, models.CurrencyRUB)))
	} else {
		log.Printf("Failed to load order stats: %v", err)
	}
	return sb.String()
}

// placeOrder resolves the buyer and product from a buy callback and creates a
// pending order for a single unit.
func (b *Bot) placeOrder(telegramID int64, data, prefix string, gateway models.PaymentGateway) (*models.Order, *models.Product, error) {
	user, err := b.Users.ByTelegramID(telegramID)
	if err != nil {
		return nil, nil, err
	}
	if user.IsBanned {
		return nil, nil, service.ErrNotFound
	}

	product, err := b.productFromCallback(data, prefix)
	if err != nil {
		return nil, nil, err
	}

	order, err := b.Orders.Create(user.ID, product.ID, 1, gateway)
	if err != nil {
		return nil, nil, err
	}
	return order, product, nil
}

func (b *Bot) productFromCallback(data, prefix string) (*models.Product, error) {
	id, err := strconv.ParseUint(strings.TrimPrefix(data, prefix), 10, 32)
	if err != nil {
		return nil, service.ErrNotFound
	}
	return b.Products.ByID(uint(id))
}

func (b *Bot) reportOrderError(ctx *th.Context, telegramID int64, err error) {
	msg := "❌ Something went wrong, please try again."
	switch {
	case errors.Is(err, service.ErrUnavailable):
		msg = "😔 This product just sold out."
	case errors.Is(err, service.ErrNotFound):
		msg = "❌ This product is no longer available."
	case errors.Is(err, service.ErrGatewayDisabled):
		msg = "❌ This payment method is currently unavailable."
	}
	_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(tu.ID(telegramID), msg))
}

func (b *Bot) sendOrderHistory(ctx *th.Context, telegramID int64) {
	user, err := b.Users.ByTelegramID(telegramID)
	if err != nil {
		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(tu.ID(telegramID), "You have no orders yet. Start with /start."))
		return
	}

	orders, err := b.Orders.ListByUser(user.ID, "", 10, 0)
	if err != nil || len(orders) == 0 {
		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(tu.ID(telegramID), "📦 You have no orders yet."))
		return
	}

	var sb strings.Builder
	sb.WriteString("📦 *Your recent orders:*\n")
	for _, order := range orders {
		sb.WriteString(fmt.Sprintf("\n`#%s` - %s, %s, %s",
			order.OrderNumber, order.Product.Name, order.FormattedTotal(), statusTitle(order.Status)))
	}

	_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(tu.ID(telegramID), sb.String()).
		WithParseMode(telego.ModeMarkdown))
}

func mainKeyboard() *telego.InlineKeyboardMarkup {
	return tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("🛍 Catalog").WithCallbackData("catalog"),
		),
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("📦 My orders").WithCallbackData("orders"),
			tu.InlineKeyboardButton("👤 Profile").WithCallbackData("profile"),
		),
	)
}

func identityFrom(from *telego.User) service.Identity {
	return service.Identity{
		TelegramID:   from.ID,
		Username:     from.Username,
		FirstName:    from.FirstName,
		LastName:     from.LastName,
		LanguageCode: from.LanguageCode,
	}
}

func categoryTitle(category models.ProductCategory) string {
	switch category {
	case models.CategorySoftware:
		return "💻 Software"
	case models.CategoryGaming:
		return "🎮 Gaming"
	case models.CategorySubscription:
		return "📺 Subscriptions"
	case models.CategoryEducation:
		return "📚 Education"
	default:
		return "📁 Digital goods"
	}
}

func statusTitle(status models.OrderStatus) string {
	switch status {
	case models.OrderPending:
		return "⏳ awaiting payment"
	case models.OrderProcessing:
		return "🔄 processing"
	case models.OrderCompleted:
		return "✅ completed"
	case models.OrderCancelled:
		return "❌ cancelled"
	case models.OrderFailed:
		return "⚠️ failed"
	case models.OrderRefunded:
		return "↩️ refunded"
	default:
		return string(status)
	}
}
