package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `autovote manages periodic votes for Minecraft server-list sites.

Core concepts:
- Project: a (vote page URL, username) pair with a cooldown interval. It can vote once the interval has passed since its last vote.
- Settings: notifications, auto-vote on page visit, CAPTCHA warnings.
- Stats: total, today and week vote counters. Today resets on the first check of a new calendar day; week only resets with reset_stats.

Typical workflow:
1) get_status to see how many projects are eligible and when the next one is due.
2) list_projects for details; add_project / toggle_project / delete_project to manage them.
3) vote_all opens one background tab per eligible project and votes. It returns once every tab is opened.
4) get_stats to confirm votes were recorded.

Docs:
- autovote://docs/index
- autovote://docs/sites
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "autovote://docs/index",
		Name:        "docs_index",
		Title:       "autovote docs index",
		Description: "What the tools do and how eligibility is computed.",
		Content: `# autovote

## Tools

- ` + "`list_projects`" + `: every project with its last vote, vote count and next eligible time.
- ` + "`add_project`" + `: name, username, url and interval_hours. Projects start enabled unless enabled=false.
- ` + "`toggle_project`" + ` / ` + "`delete_project`" + `: by id.
- ` + "`get_settings`" + ` / ` + "`update_settings`" + `: only the fields you pass are changed.
- ` + "`get_stats`" + ` / ` + "`reset_stats`" + `.
- ` + "`get_status`" + `: total, active and eligible counts plus a next-vote label.
- ` + "`vote_all`" + `: runs a batch over eligible projects.
- ` + "`clear_all`" + `: removes projects, settings and stats.

## Eligibility

A project is eligible when it has never voted, or when now is at or after last vote + interval.
Disabled projects are never included in a batch.

## Batches

Tabs are opened one after another with a short delay between opens.
Each tab lives for a fixed time and closes on its own. A tab that fails to open does not stop the batch.
`,
	},
	{
		URI:         "autovote://docs/sites",
		Name:        "docs_sites",
		Title:       "Supported vote sites",
		Description: "Which sites have dedicated vote strategies and what happens on other sites.",
		Content: `# Supported vote sites

Dedicated strategies:

- minecraft-mp.com
- minecraftservers.org
- minecraft-server-list.com
- minecraft-server.net

Any other host uses a generic strategy that looks for common vote buttons.

## CAPTCHA

If a CAPTCHA widget is present on the page, no click is made and no vote is recorded.
With CAPTCHA warnings enabled, a warning is shown on the page so the user can vote by hand.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
