package notifier

import (
	"Larder-Backend/domain"
	"Larder-Backend/internal/utils"
	"Larder-Backend/internal/utils/mailing"
	"Larder-Backend/pkg/inventory"
	"Larder-Backend/pkg/user"
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
)

const defaultNotifyDays = 3

type (
	// Notifier mails each user a digest of items expiring within the
	// configured window. Best effort; one user's SMTP failure never blocks
	// the rest.
	Notifier interface {
		SendExpiryDigest(ctx context.Context) error
	}

	notifier struct {
		inventoryService inventory.InventoryService
		userRepository   user.UserRepository
	}
)

func NewNotifier(inventoryService inventory.InventoryService, userRepository user.UserRepository) Notifier {
	return &notifier{
		inventoryService: inventoryService,
		userRepository:   userRepository,
	}
}

func (n *notifier) SendExpiryDigest(ctx context.Context) error {
	users, err := n.userRepository.ListUsers(ctx)
	if err != nil {
		return err
	}

	days := notifyDays()

	for _, u := range users {
		if u.Email == "" {
			continue
		}

		expiring, err := n.inventoryService.FindExpiringSoon(ctx, days, u.ID.String())
		if err != nil {
			log.Printf("expiry digest: skipping user %s: %v", u.ID, err)
			continue
		}
		if len(expiring.Ingredients) == 0 && len(expiring.Foods) == 0 {
			continue
		}

		subject := fmt.Sprintf("%d items in your larder expire soon", len(expiring.Ingredients)+len(expiring.Foods))
		if err := mailing.SendMail(u.Email, subject, digestBody(u.Name, expiring)); err != nil {
			log.Printf("expiry digest: failed to mail user %s: %v", u.ID, err)
		}
	}

	return nil
}

func notifyDays() int {
	raw := utils.GetConfig("EXPIRY_NOTIFY_DAYS")
	days, err := strconv.Atoi(raw)
	if err != nil || days < 0 {
		return defaultNotifyDays
	}
	return days
}

func digestBody(name string, expiring domain.ExpiringSoonResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<p>Hi %s,</p><p>These items expire within %d days:</p><ul>", name, expiring.DaysAhead)
	for _, item := range expiring.Ingredients {
		fmt.Fprintf(&b, "<li>%s: %.2f %s, %s</li>", item.Name, item.Quantity, item.Unit, expiryPhrase(item.DaysToExpire))
	}
	for _, item := range expiring.Foods {
		fmt.Fprintf(&b, "<li>%s: %.1f servings, %s</li>", item.Name, item.ServingQuantity, expiryPhrase(item.DaysToExpire))
	}
	b.WriteString("</ul>")
	return b.String()
}

func expiryPhrase(days int) string {
	switch {
	case days <= 0:
		return "expires today"
	case days == 1:
		return "expires tomorrow"
	default:
		return fmt.Sprintf("expires in %d days", days)
	}
}
