package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/insyd/notify/backend/internal/models"
	"github.com/insyd/notify/backend/pkg/notifyclient"
	"github.com/urfave/cli/v3"
)

const VERSION = "0.1.0"

var serverFlag = &cli.StringFlag{
	Name:    "server",
	Aliases: []string{"s"},
	Usage:   "Base URL of the notification service",
	Value:   "http://localhost:4000",
	Sources: cli.EnvVars("NOTIFY_SERVER"),
}

var limitFlag = &cli.IntFlag{
	Name:  "limit",
	Usage: "Maximum number of rows to list",
	Value: 50,
}

func withClient(fn func(ctx context.Context, c *cli.Command, client *notifyclient.Client) error) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		client := notifyclient.NewClient(c.String("server"))
		defer client.Close()
		return fn(ctx, c, client)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// toID rejects ids that are not positive instead of letting them wrap
func toID[T ~int | ~int64](name string, v T) (uint, error) {
	if v <= 0 {
		return 0, fmt.Errorf("--%s must be a positive id, got %d", name, v)
	}
	return uint(v), nil
}

func flagID(c *cli.Command, name string) (uint, error) {
	return toID(name, c.Int(name))
}

func optionalID(c *cli.Command, name string) (*uint, error) {
	if !c.IsSet(name) {
		return nil, nil
	}
	id, err := flagID(c, name)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func limitFrom(c *cli.Command) (int, error) {
	limit := int(c.Int("limit"))
	if limit < 0 {
		return 0, fmt.Errorf("--limit must not be negative, got %d", limit)
	}
	return limit, nil
}

var seedCmd = &cli.Command{
	Name:  "seed",
	Usage: "Create the demo users and follow graph",
	Action: withClient(func(ctx context.Context, _ *cli.Command, client *notifyclient.Client) error {
		result, err := client.Seed(ctx)
		if err != nil {
			return err
		}
		users, err := client.Users(ctx)
		if err != nil {
			return err
		}
		return printJSON(map[string]any{"result": result, "users": users})
	}),
}

var emitCmd = &cli.Command{
	Name:      "emit",
	Usage:     "Submit an activity event",
	ArgsUsage: "<follow|post_created|like|mention>",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "id", Usage: "Event id (idempotency token); a random one when empty"},
		&cli.IntFlag{Name: "actor", Usage: "Acting user id", Required: true},
		&cli.IntFlag{Name: "content", Usage: "Content id (like, post_created)"},
		&cli.IntFlag{Name: "target", Usage: "Followed user id (follow)"},
		&cli.IntSliceFlag{Name: "mention", Usage: "Mentioned user id, repeatable (mention)"},
	},
	Action: withClient(func(ctx context.Context, c *cli.Command, client *notifyclient.Client) error {
		if c.Args().Len() != 1 {
			return fmt.Errorf("expected exactly one event type, got %d arguments", c.Args().Len())
		}
		eventID := c.String("id")
		if eventID == "" {
			eventID = uuid.NewString()
		}
		actor, err := flagID(c, "actor")
		if err != nil {
			return err
		}
		contentID, err := optionalID(c, "content")
		if err != nil {
			return err
		}
		target, err := optionalID(c, "target")
		if err != nil {
			return err
		}

		ev := &models.Event{
			EventID:      eventID,
			Type:         models.EventType(c.Args().First()),
			ActorID:      actor,
			ContentID:    contentID,
			TargetUserID: target,
		}
		for _, v := range c.IntSlice("mention") {
			id, err := toID("mention", v)
			if err != nil {
				return err
			}
			ev.MentionedUserIDs = append(ev.MentionedUserIDs, id)
		}

		result, err := client.Emit(ctx, ev)
		if err != nil {
			return err
		}
		return printJSON(result)
	}),
}

var postCmd = &cli.Command{
	Name:  "post",
	Usage: "Create content and announce it with a post_created event",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "author", Usage: "Author user id", Required: true},
		&cli.StringFlag{Name: "type", Usage: "Content type", Value: models.DefaultContentType},
	},
	Action: withClient(func(ctx context.Context, c *cli.Command, client *notifyclient.Client) error {
		author, err := flagID(c, "author")
		if err != nil {
			return err
		}
		content, err := client.CreateContent(ctx, author, c.String("type"))
		if err != nil {
			return err
		}
		result, err := client.Emit(ctx, &models.Event{
			EventID:   fmt.Sprintf("post-%d", content.ID),
			Type:      models.EventPostCreated,
			ActorID:   author,
			ContentID: &content.ID,
		})
		if err != nil {
			return err
		}
		return printJSON(map[string]any{"content": content, "result": result})
	}),
}

var followCmd = &cli.Command{
	Name:  "follow",
	Usage: "Store a follow edge and emit the follow event",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "follower", Required: true},
		&cli.IntFlag{Name: "followee", Required: true},
	},
	Action: withClient(func(ctx context.Context, c *cli.Command, client *notifyclient.Client) error {
		follower, err := flagID(c, "follower")
		if err != nil {
			return err
		}
		followee, err := flagID(c, "followee")
		if err != nil {
			return err
		}
		if _, err := client.Follow(ctx, follower, followee); err != nil {
			return err
		}
		result, err := client.Emit(ctx, &models.Event{
			EventID:      fmt.Sprintf("follow-%d-%d", follower, followee),
			Type:         models.EventFollow,
			ActorID:      follower,
			TargetUserID: &followee,
		})
		if err != nil {
			return err
		}
		return printJSON(result)
	}),
}

var notificationsCmd = &cli.Command{
	Name:  "notifications",
	Usage: "List a user's notifications",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "user", Required: true},
		limitFlag,
	},
	Action: withClient(func(ctx context.Context, c *cli.Command, client *notifyclient.Client) error {
		user, err := flagID(c, "user")
		if err != nil {
			return err
		}
		limit, err := limitFrom(c)
		if err != nil {
			return err
		}
		notifications, err := client.Notifications(ctx, user, limit)
		if err != nil {
			return err
		}
		return printJSON(notifications)
	}),
}

var postsCmd = &cli.Command{
	Name:  "posts",
	Usage: "List an author's content",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "author", Required: true},
		limitFlag,
	},
	Action: withClient(func(ctx context.Context, c *cli.Command, client *notifyclient.Client) error {
		author, err := flagID(c, "author")
		if err != nil {
			return err
		}
		limit, err := limitFrom(c)
		if err != nil {
			return err
		}
		contents, err := client.Posts(ctx, author, limit)
		if err != nil {
			return err
		}
		return printJSON(contents)
	}),
}

var readCmd = &cli.Command{
	Name:  "read",
	Usage: "Mark a notification as read",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "id", Required: true},
	},
	Action: withClient(func(ctx context.Context, c *cli.Command, client *notifyclient.Client) error {
		id, err := flagID(c, "id")
		if err != nil {
			return err
		}
		return client.MarkRead(ctx, id)
	}),
}

var userCmd = &cli.Command{
	Name:  "user",
	Usage: "Show a user and their follower count",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "id", Required: true},
	},
	Action: withClient(func(ctx context.Context, c *cli.Command, client *notifyclient.Client) error {
		id, err := flagID(c, "id")
		if err != nil {
			return err
		}
		profile, err := client.User(ctx, id)
		if err != nil {
			return err
		}
		return printJSON(profile)
	}),
}

var cmd = &cli.Command{
	Name:    "notifyctl",
	Usage:   "Drive the notification service from the command line",
	Version: VERSION,
	Flags:   []cli.Flag{serverFlag},
	Commands: []*cli.Command{
		seedCmd,
		emitCmd,
		postCmd,
		followCmd,
		notificationsCmd,
		postsCmd,
		readCmd,
		userCmd,
	},
}

func main() {
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
