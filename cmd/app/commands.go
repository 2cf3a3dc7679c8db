package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/starford/chemid/internal"
	"github.com/starford/chemid/internal/lookup"
	"github.com/starford/chemid/internal/models"
	"github.com/starford/chemid/internal/parser"
)

func requireArg(cmd *cli.Command, what string) (string, error) {
	if cmd.Args().Len() != 1 {
		return "", fmt.Errorf("expected exactly one %s argument", what)
	}
	return cmd.Args().First(), nil
}

// cidArgs gathers identifiers from the arguments and, when --file is set,
// from an identifier list file ("-" reads stdin).
func cidArgs(cmd *cli.Command) ([]string, error) {
	var cids []string
	for _, arg := range cmd.Args().Slice() {
		cids = append(cids, parser.SplitList(arg)...)
	}
	if path := cmd.String("file"); path != "" {
		var data []byte
		var err error
		if path == "-" {
			data, err = io.ReadAll(os.Stdin)
		} else {
			data, err = os.ReadFile(path)
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		res, err := parser.ParseCIDs(data)
		if err != nil {
			return nil, err
		}
		if len(res.Invalid) > 0 {
			return nil, fmt.Errorf("%s: invalid cids: %v", path, res.Invalid)
		}
		cids = append(cids, res.Items...)
	}
	if len(cids) == 0 {
		return nil, errors.New("no cids given")
	}
	return cids, nil
}

func fileFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "file",
		Aliases: []string{"f"},
		Usage:   "Read identifiers from a list file (plain or YAML, - for stdin)",
	}
}

func resolveCommand() *cli.Command {
	return &cli.Command{
		Name:      "resolve",
		Usage:     "Resolve a compound name into its identity chain",
		ArgsUsage: "NAME",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "oldest", Usage: "Order records by ascending CID first"},
			&cli.StringFlag{Name: "name-types", Usage: "Comma-separated name-type priority", Value: "Traditional,Preferred"},
			&cli.BoolFlag{Name: "json", Usage: "Print the chain as JSON"},
		},
		Action: withServices(func(ctx context.Context, cmd *cli.Command, svcs *internal.Services) error {
			name, err := requireArg(cmd, "NAME")
			if err != nil {
				return err
			}
			id, err := svcs.Lookup.Resolve(ctx, name, lookup.ResolveOptions{
				Oldest:    cmd.Bool("oldest"),
				NameTypes: models.ParseNameTypes(cmd.String("name-types")),
			})
			if err != nil {
				return err
			}
			if cmd.Bool("json") {
				return printJSON(id)
			}
			fmt.Println(id)
			return nil
		}),
	}
}

func synonymsCommand() *cli.Command {
	return &cli.Command{
		Name:      "synonyms",
		Usage:     "List the synonyms of a compound name",
		ArgsUsage: "NAME",
		Action: withServices(func(ctx context.Context, cmd *cli.Command, svcs *internal.Services) error {
			name, err := requireArg(cmd, "NAME")
			if err != nil {
				return err
			}
			syn, err := svcs.Lookup.Synonyms(ctx, name)
			if err != nil {
				return err
			}
			for _, s := range syn.Synonyms {
				fmt.Println(s)
			}
			return nil
		}),
	}
}

func titlesCommand() *cli.Command {
	return &cli.Command{
		Name:      "titles",
		Usage:     "Map identifiers to titles",
		ArgsUsage: "[CID...]",
		Flags:     []cli.Flag{fileFlag()},
		Action: withServices(func(ctx context.Context, cmd *cli.Command, svcs *internal.Services) error {
			cids, err := cidArgs(cmd)
			if err != nil {
				return err
			}
			res, err := svcs.Lookup.Titles(ctx, cids)
			if err != nil {
				return err
			}
			return printJSON(res)
		}),
	}
}

func descriptionsCommand() *cli.Command {
	return &cli.Command{
		Name:      "descriptions",
		Usage:     "Fetch description records for identifiers",
		ArgsUsage: "[CID...]",
		Flags:     []cli.Flag{fileFlag()},
		Action: withServices(func(ctx context.Context, cmd *cli.Command, svcs *internal.Services) error {
			cids, err := cidArgs(cmd)
			if err != nil {
				return err
			}
			ds, err := svcs.Lookup.Descriptions(ctx, cids)
			if err != nil {
				return err
			}
			return printJSON(ds)
		}),
	}
}

func cidCommand() *cli.Command {
	return &cli.Command{
		Name:      "cid",
		Usage:     "Look up the CID of a compound name",
		ArgsUsage: "NAME",
		Action: withServices(func(ctx context.Context, cmd *cli.Command, svcs *internal.Services) error {
			name, err := requireArg(cmd, "NAME")
			if err != nil {
				return err
			}
			cid, err := svcs.Lookup.CID(ctx, name)
			if err != nil {
				return err
			}
			fmt.Println(cid)
			return nil
		}),
	}
}

func parentCommand() *cli.Command {
	return &cli.Command{
		Name:      "parent",
		Usage:     "Look up the parent CID of an identifier",
		ArgsUsage: "CID",
		Action: withServices(func(ctx context.Context, cmd *cli.Command, svcs *internal.Services) error {
			cid, err := requireArg(cmd, "CID")
			if err != nil {
				return err
			}
			parent, err := svcs.Lookup.ParentCID(ctx, cid)
			if err != nil {
				return err
			}
			fmt.Println(parent)
			return nil
		}),
	}
}

func cacheCommand() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Manage the response cache",
		Commands: []*cli.Command{
			{
				Name:  "purge",
				Usage: "Drop expired entries from the SQLite cache",
				Action: withServices(func(_ context.Context, _ *cli.Command, svcs *internal.Services) error {
					n, err := svcs.PurgeCache()
					if err != nil {
						return err
					}
					fmt.Printf("purged %d entries\n", n)
					return nil
				}),
			},
		},
	}
}
