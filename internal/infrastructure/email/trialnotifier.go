package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/veyra-hq/veyra/internal/domain/rbac"
	"github.com/veyra-hq/veyra/internal/domain/user"
	"github.com/veyra-hq/veyra/internal/shared/catalog"
	"github.com/veyra-hq/veyra/internal/shared/logger"
)

type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	FromAddress string
	FromName    string
	BaseURL     string // Base URL for links in email bodies (e.g., "https://app.veyra.io")
}

// SMTPTrialNotifier mails an organization's administrators when a module
// trial ends. Recipients are the active org_admin users of the organization.
type SMTPTrialNotifier struct {
	config   SMTPConfig
	dialer   *gomail.Dialer
	userRepo user.Repository
	catalog  *catalog.Catalog
	logger   logger.Interface
}

func NewSMTPTrialNotifier(config SMTPConfig, userRepo user.Repository, cat *catalog.Catalog, log logger.Interface) *SMTPTrialNotifier {
	return &SMTPTrialNotifier{
		config:   config,
		dialer:   gomail.NewDialer(config.Host, config.Port, config.Username, config.Password),
		userRepo: userRepo,
		catalog:  cat,
		logger:   log,
	}
}

func (n *SMTPTrialNotifier) NotifyTrialExpired(ctx context.Context, orgID uint, moduleKey string) error {
	users, err := n.userRepo.ListByOrg(ctx, orgID)
	if err != nil {
		return fmt.Errorf("failed to load organization users: %w", err)
	}

	moduleName := moduleKey
	if m, ok := n.catalog.Module(moduleKey); ok {
		moduleName = m.Name
	}

	sent := 0
	for _, u := range users {
		if u.Role() != rbac.RoleOrgAdmin || !u.IsActive() {
			continue
		}
		if err := n.sendTrialExpiredEmail(u.Email(), moduleName); err != nil {
			n.logger.Warnw("failed to send trial expiry email",
				"to", u.Email(), "org_id", orgID, "module", moduleKey, "error", err)
			continue
		}
		sent++
	}

	if sent == 0 {
		n.logger.Infow("no trial expiry email sent, organization has no active admins",
			"org_id", orgID, "module", moduleKey)
	}
	return nil
}

func (n *SMTPTrialNotifier) sendTrialExpiredEmail(to, moduleName string) error {
	upgradeURL := fmt.Sprintf("%s/settings/billing", n.config.BaseURL)

	subject := fmt.Sprintf("Your %s trial has ended", moduleName)
	htmlBody := fmt.Sprintf(`
		<html>
		<body>
			<h2>Trial Ended</h2>
			<p>The trial period for <strong>%s</strong> has ended and the module is no longer available to your organization.</p>
			<p>Your data is preserved and will be available again as soon as the module is activated.</p>
			<p><a href="%s">Upgrade your plan</a> to keep using %s.</p>
		</body>
		</html>
	`, moduleName, upgradeURL, moduleName)

	plainBody := fmt.Sprintf(`
Trial Ended

The trial period for %s has ended and the module is no longer available to your organization.

Your data is preserved and will be available again as soon as the module is activated.

Upgrade your plan to keep using %s:
%s
	`, moduleName, moduleName, upgradeURL)

	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(n.config.FromAddress, n.config.FromName))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", plainBody)
	m.AddAlternative("text/html", htmlBody)

	if err := n.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
