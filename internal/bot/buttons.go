package bot

import "gopkg.in/telebot.v4"

// Reply keyboards. guestMenu is shown to anyone without a stored session,
// adminMenu after a successful login.
var (
	guestMenu = &telebot.ReplyMarkup{ResizeKeyboard: true}
	adminMenu = &telebot.ReplyMarkup{ResizeKeyboard: true}

	btnLogin        = guestMenu.Text("🔑 Log in")
	btnPriceRequest = guestMenu.Text("🚗 Request a price")

	btnDashboard = adminMenu.Text("📊 Dashboard")
	btnUsers     = adminMenu.Text("👥 Users")
	btnOrders    = adminMenu.Text("📦 Orders")
	btnFirmwares = adminMenu.Text("💾 Firmwares")
	btnStaff     = adminMenu.Text("🛡 Staff")
	btnLogout    = adminMenu.Text("🚪 Log out")
)

// Inline button callbacks. Data carries the target entity ID, except for
// fw_page where it carries the list offset.
var (
	btnUserDetails       = telebot.InlineButton{Unique: "user_details"}
	btnUserSearch        = telebot.InlineButton{Unique: "user_search"}
	btnUserBlock         = telebot.InlineButton{Unique: "user_block"}
	btnUserUnblock       = telebot.InlineButton{Unique: "user_unblock"}
	btnUserDelete        = telebot.InlineButton{Unique: "user_delete"}
	btnUserDeleteConfirm = telebot.InlineButton{Unique: "user_delete_confirm"}
	btnUserDeleteCancel  = telebot.InlineButton{Unique: "user_delete_cancel"}
	btnUserPartner       = telebot.InlineButton{Unique: "user_partner"}
	btnUserSlave         = telebot.InlineButton{Unique: "user_slave"}
	btnUserCoefficient   = telebot.InlineButton{Unique: "user_coefficient"}
	btnUserBalance       = telebot.InlineButton{Unique: "user_balance"}

	btnFirmwarePage = telebot.InlineButton{Unique: "fw_page"}
	btnOrdersExport = telebot.InlineButton{Unique: "orders_export"}

	btnStaffCreate        = telebot.InlineButton{Unique: "staff_create"}
	btnStaffDelete        = telebot.InlineButton{Unique: "staff_delete"}
	btnStaffDeleteConfirm = telebot.InlineButton{Unique: "staff_delete_confirm"}
	btnStaffDeleteCancel  = telebot.InlineButton{Unique: "staff_delete_cancel"}
)

func init() {
	guestMenu.Reply(
		guestMenu.Row(btnLogin),
		guestMenu.Row(btnPriceRequest),
	)
	adminMenu.Reply(
		adminMenu.Row(btnDashboard, btnUsers),
		adminMenu.Row(btnOrders, btnFirmwares),
		adminMenu.Row(btnStaff, btnLogout),
	)
}
