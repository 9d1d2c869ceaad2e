package commands

import (
	"context"
	"fmt"

	"github.com/vidyasangam/sangam-cli/internal/linkedin"
)

type LinkedinCmd struct {
	AuthURL LinkedinAuthURLCmd `cmd:"" name:"auth-url" help:"Print the LinkedIn consent URL"`
	Share   LinkedinShareCmd   `cmd:"" help:"Share a post on LinkedIn"`

	ClientID     string `help:"LinkedIn OAuth client ID" env:"SANGAM_LINKEDIN_CLIENT_ID"`
	ClientSecret string `help:"LinkedIn OAuth client secret" env:"SANGAM_LINKEDIN_CLIENT_SECRET"`
	RedirectURL  string `help:"LinkedIn OAuth redirect URL" env:"SANGAM_LINKEDIN_REDIRECT_URL"`
}

type LinkedinAuthURLCmd struct {
	State string `help:"Opaque state passed through the consent flow" default:"sangam-cli"`
}

func (l *LinkedinAuthURLCmd) Run(ctx context.Context, globals *Globals, parent *LinkedinCmd) error {
	client, err := linkedin.New(parent.ClientID, parent.ClientSecret, parent.RedirectURL)
	if err != nil {
		return err
	}

	fmt.Println(client.AuthCodeURL(l.State))
	return nil
}

type LinkedinShareCmd struct {
	Code string `help:"Authorization code from the consent redirect" required:""`
	Text string `help:"Post text" required:""`
}

func (l *LinkedinShareCmd) Run(ctx context.Context, globals *Globals, parent *LinkedinCmd) error {
	client, err := linkedin.New(parent.ClientID, parent.ClientSecret, parent.RedirectURL)
	if err != nil {
		return err
	}

	token, err := client.ExchangeCode(ctx, l.Code)
	if err != nil {
		return err
	}

	memberID, err := client.UserID(ctx, token)
	if err != nil {
		return err
	}

	postID, err := client.SharePost(ctx, token, memberID, l.Text)
	if err != nil {
		return err
	}

	fmt.Printf("Post created: %s\n", postID)
	return nil
}
