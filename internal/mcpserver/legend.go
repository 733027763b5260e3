package mcpserver

// GalaxyLegend explains how a repository maps onto the galaxy so LLM
// consumers can read tool results.
const GalaxyLegend = `# Orrery Galaxy Legend

Orrery draws a repository as a spiral galaxy.

## Bodies

| Repository | Galaxy | Notes |
|---|---|---|
| root folder | galactic core (path ` + "`" + `/` + "`" + `) | sits at the origin |
| folder | star system | placed on a spiral arm around its parent |
| file | planet | circles its folder's star on a flat orbit |

- Paths are absolute and slash-separated: ` + "`" + `/internal/layout/spiral.go` + "`" + `.
- A system's **visual radius** grows with the number of descendants; its
  **system radius** bounds every orbit and sub-system it holds, so systems
  never overlap.
- A planet's **body radius** grows with the file size (logarithmic, capped).
- Orbits follow the folder's child order, innermost first. Inner orbits are
  faster and the direction alternates with depth; planets move at ` + "`" + `start_angle + angular_speed * t` + "`" + `.

## Layout strategies

- ` + "`" + `spiral` + "`" + `: deterministic; the same tree always yields the same positions.
- ` + "`" + `force` + "`" + `: force-directed relaxation seeded by the spiral, bounded iterations.

## Units

World units are arbitrary; simulation time ` + "`" + `t` + "`" + ` is in seconds.
Sizes in tool results come in bytes and humanized form (` + "`" + `2.0 kB` + "`" + `).

## Tools

- ` + "`" + `galaxy_summary` + "`" + `: counts, total size, top extensions.
- ` + "`" + `search_nodes` + "`" + `: find files and folders by name or path.
- ` + "`" + `locate_node` + "`" + `: world position of a node at time t.
- ` + "`" + `list_system` + "`" + `: sub-systems and planets of a folder (` + "`" + `/` + "`" + ` is the core).
- ` + "`" + `read_file` + "`" + `: file content with its SHA-256 checksum.
`
