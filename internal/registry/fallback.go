package registry

import "github.com/MrSnakeDoc/qrcard/internal/domain"

// Fallback is the minimal built-in catalog: at least one platform per
// category so the editor never renders an empty list.
func Fallback() []domain.Platform {
	return []domain.Platform{
		{ID: "instagram", Title: "Instagram", Category: domain.CategorySocial, Requirement: domain.RequireFreetext},
		{ID: "facebook", Title: "Facebook", Category: domain.CategorySocial, Requirement: domain.RequireURL},
		{ID: "tiktok", Title: "TikTok", Category: domain.CategorySocial, Requirement: domain.RequireFreetext},
		{ID: "whatsapp", Title: "WhatsApp", Category: domain.CategoryContact, Requirement: domain.RequirePhone, URLTemplate: "https://wa.me/{PHONE}"},
		{ID: "phone", Title: "Phone", Category: domain.CategoryContact, Requirement: domain.RequirePhone},
		{ID: "email", Title: "Email", Category: domain.CategoryContact, Requirement: domain.RequireFreetext, URLTemplate: "mailto:{VALUE}"},
		{ID: "paypal", Title: "PayPal", Category: domain.CategoryPayment, Requirement: domain.RequireFreetext},
		{ID: "youtube", Title: "YouTube", Category: domain.CategoryVideo, Requirement: domain.RequireURL},
		{ID: "spotify", Title: "Spotify", Category: domain.CategoryMusic, Requirement: domain.RequireURL},
		{ID: "behance", Title: "Behance", Category: domain.CategoryDesign, Requirement: domain.RequireFreetext},
		{ID: "twitch", Title: "Twitch", Category: domain.CategoryGaming, Requirement: domain.RequireFreetext},
		{ID: "website", Title: "Website", Category: domain.CategoryOther, Requirement: domain.RequireURL},
	}
}
