// Package client provides a fluent builder for catalog configurations
// and an HTTP client for a lifesim server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/mauro3422/lifesim/internal/sim"
)

// CatalogBuilder provides a fluent API for building catalogs.
// Use it to define the elements, ring structures, named molecules and
// zones that describe a bonded-particle chemistry.
type CatalogBuilder struct {
	name       string
	elements   []*ElementBuilder
	structures []*StructureBuilder
	molecules  []*MoleculeBuilder
	zones      []*ZoneBuilder
}

// NewCatalog creates a new catalog builder with the given name.
// The name identifies the catalog and is used for organization purposes.
func NewCatalog(name string) *CatalogBuilder {
	return &CatalogBuilder{
		name:       name,
		elements:   make([]*ElementBuilder, 0),
		structures: make([]*StructureBuilder, 0),
		molecules:  make([]*MoleculeBuilder, 0),
		zones:      make([]*ZoneBuilder, 0),
	}
}

// Element adds an element definition to the catalog.
func (cb *CatalogBuilder) Element(eb *ElementBuilder) *CatalogBuilder {
	cb.elements = append(cb.elements, eb)
	return cb
}

// Structure adds a ring structure definition to the catalog.
func (cb *CatalogBuilder) Structure(sb *StructureBuilder) *CatalogBuilder {
	cb.structures = append(cb.structures, sb)
	return cb
}

// Molecule adds a named molecule definition to the catalog.
func (cb *CatalogBuilder) Molecule(mb *MoleculeBuilder) *CatalogBuilder {
	cb.molecules = append(cb.molecules, mb)
	return cb
}

// Zone adds a zone definition to the catalog.
func (cb *CatalogBuilder) Zone(zb *ZoneBuilder) *CatalogBuilder {
	cb.zones = append(cb.zones, zb)
	return cb
}

// Build converts the builder to a CatalogConfig that can be used with
// ApplyCatalog or written to a config file.
func (cb *CatalogBuilder) Build() sim.CatalogConfig {
	elements := make([]sim.ElementConfig, 0, len(cb.elements))
	for _, eb := range cb.elements {
		elements = append(elements, eb.Build())
	}
	structures := make([]sim.StructureConfig, 0, len(cb.structures))
	for _, sb := range cb.structures {
		structures = append(structures, sb.Build())
	}
	molecules := make([]sim.MoleculeConfig, 0, len(cb.molecules))
	for _, mb := range cb.molecules {
		molecules = append(molecules, mb.Build())
	}
	zones := make([]sim.ZoneConfig, 0, len(cb.zones))
	for _, zb := range cb.zones {
		zones = append(zones, zb.Build())
	}

	return sim.CatalogConfig{
		Name:       cb.name,
		Elements:   elements,
		Structures: structures,
		Molecules:  molecules,
		Zones:      zones,
	}
}

// ElementBuilder provides a fluent API for building element configurations.
type ElementBuilder struct {
	id         string
	name       string
	maxBonds   int
	atomicMass float64
	slots      []sim.Vec3
	seeking    bool
}

// NewElement creates a new element builder with the given ID and valence.
// The name defaults to the ID but can be overridden with the Name method.
func NewElement(id string, maxBonds int) *ElementBuilder {
	return &ElementBuilder{
		id:       id,
		name:     id, // Default name to ID
		maxBonds: maxBonds,
	}
}

// Name sets the human-readable name for the element.
func (eb *ElementBuilder) Name(name string) *ElementBuilder {
	eb.name = name
	return eb
}

// Mass sets the atomic mass of the element.
func (eb *ElementBuilder) Mass(mass float64) *ElementBuilder {
	eb.atomicMass = mass
	return eb
}

// Slot adds an explicit valence slot direction. When no slots are added,
// the server spreads the element's slots evenly in the bonding plane.
func (eb *ElementBuilder) Slot(x, y, z float64) *ElementBuilder {
	eb.slots = append(eb.slots, sim.Vec3{X: x, Y: y, Z: z})
	return eb
}

// Seeking marks the element as affinity-seeking: atoms of this element
// with spare valence attract each other at long range.
func (eb *ElementBuilder) Seeking() *ElementBuilder {
	eb.seeking = true
	return eb
}

// Build converts the builder to an ElementConfig.
func (eb *ElementBuilder) Build() sim.ElementConfig {
	return sim.ElementConfig{
		ID:         eb.id,
		Name:       eb.name,
		MaxBonds:   eb.maxBonds,
		AtomicMass: eb.atomicMass,
		Slots:      eb.slots,
		Seeking:    eb.seeking,
	}
}

// StructureBuilder provides a fluent API for building ring structure
// configurations.
type StructureBuilder struct {
	name                string
	ringSize            int
	element             string
	formationSpeed      float64
	formationDamping    float64
	maxFormationSpeed   float64
	completionThreshold float64
	rotationOffset      float64
	instant             bool
}

// NewStructure creates a new structure builder for rings of the given
// size and element.
func NewStructure(name string, ringSize int, element string) *StructureBuilder {
	return &StructureBuilder{
		name:     name,
		ringSize: ringSize,
		element:  element,
	}
}

// Formation sets the gradual formation dynamics: pull speed, internal
// damping and the speed cap applied while the ring settles.
func (sb *StructureBuilder) Formation(speed, damping, maxSpeed float64) *StructureBuilder {
	sb.formationSpeed = speed
	sb.formationDamping = damping
	sb.maxFormationSpeed = maxSpeed
	return sb
}

// CompletionThreshold sets how close every member must be to its target
// before the ring snaps rigid.
func (sb *StructureBuilder) CompletionThreshold(threshold float64) *StructureBuilder {
	sb.completionThreshold = threshold
	return sb
}

// RotationOffset rotates the target polygon by the given angle (radians).
func (sb *StructureBuilder) RotationOffset(offset float64) *StructureBuilder {
	sb.rotationOffset = offset
	return sb
}

// Instant makes the ring snap to its target polygon the moment it forms,
// skipping gradual formation entirely.
func (sb *StructureBuilder) Instant() *StructureBuilder {
	sb.instant = true
	return sb
}

// Build converts the builder to a StructureConfig.
func (sb *StructureBuilder) Build() sim.StructureConfig {
	return sim.StructureConfig{
		Name:                sb.name,
		RingSize:            sb.ringSize,
		Element:             sb.element,
		FormationSpeed:      sb.formationSpeed,
		FormationDamping:    sb.formationDamping,
		MaxFormationSpeed:   sb.maxFormationSpeed,
		CompletionThreshold: sb.completionThreshold,
		RotationOffset:      sb.rotationOffset,
		InstantFormation:    sb.instant,
	}
}

// MoleculeBuilder provides a fluent API for building named molecule
// configurations.
type MoleculeBuilder struct {
	id          string
	name        string
	category    string
	description string
	composition map[string]int
}

// NewMolecule creates a new molecule builder with the given ID.
// The name defaults to the ID but can be overridden with the Name method.
func NewMolecule(id string) *MoleculeBuilder {
	return &MoleculeBuilder{
		id:          id,
		name:        id, // Default name to ID
		composition: make(map[string]int),
	}
}

// Name sets the human-readable name for the molecule.
func (mb *MoleculeBuilder) Name(name string) *MoleculeBuilder {
	mb.name = name
	return mb
}

// Category sets the molecule's category label.
func (mb *MoleculeBuilder) Category(category string) *MoleculeBuilder {
	mb.category = category
	return mb
}

// Description sets the molecule's description.
func (mb *MoleculeBuilder) Description(description string) *MoleculeBuilder {
	mb.description = description
	return mb
}

// Atoms adds count atoms of the given element to the composition.
func (mb *MoleculeBuilder) Atoms(element string, count int) *MoleculeBuilder {
	mb.composition[element] += count
	return mb
}

// Build converts the builder to a MoleculeConfig.
func (mb *MoleculeBuilder) Build() sim.MoleculeConfig {
	return sim.MoleculeConfig{
		ID:          mb.id,
		Name:        mb.name,
		Category:    mb.category,
		Description: mb.description,
		Composition: mb.composition,
	}
}

// ZoneBuilder provides a fluent API for building zone configurations.
type ZoneBuilder struct {
	name            string
	minX, minY      float64
	maxX, maxY      float64
	rangeMultiplier float64
	angleMultiplier float64
	drag            float64
}

// NewZone creates a new zone builder covering the given rectangle.
func NewZone(name string, minX, minY, maxX, maxY float64) *ZoneBuilder {
	return &ZoneBuilder{
		name: name,
		minX: minX,
		minY: minY,
		maxX: maxX,
		maxY: maxY,
	}
}

// RangeMultiplier scales the spontaneous bonding range inside the zone.
func (zb *ZoneBuilder) RangeMultiplier(m float64) *ZoneBuilder {
	zb.rangeMultiplier = m
	return zb
}

// AngleMultiplier scales the slot-angle tolerance inside the zone.
func (zb *ZoneBuilder) AngleMultiplier(m float64) *ZoneBuilder {
	zb.angleMultiplier = m
	return zb
}

// Drag sets the extra per-tick velocity damping inside the zone.
func (zb *ZoneBuilder) Drag(drag float64) *ZoneBuilder {
	zb.drag = drag
	return zb
}

// Build converts the builder to a ZoneConfig.
func (zb *ZoneBuilder) Build() sim.ZoneConfig {
	return sim.ZoneConfig{
		Name:            zb.name,
		MinX:            zb.minX,
		MinY:            zb.minY,
		MaxX:            zb.maxX,
		MaxY:            zb.maxY,
		RangeMultiplier: zb.rangeMultiplier,
		AngleMultiplier: zb.angleMultiplier,
		Drag:            zb.drag,
	}
}

// Client talks to a lifesim server over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the server at baseURL
// (e.g. "http://localhost:8080").
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{},
	}
}

func (c *Client) worldURL(worldID string, parts ...string) (string, error) {
	segments := append([]string{"world", worldID}, parts...)
	return url.JoinPath(c.baseURL, segments...)
}

func (c *Client) post(ctx context.Context, u string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(data))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) get(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(data))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// ApplyCatalog sends the catalog configuration to the server, creating
// (or replacing) the world with the given ID.
func (c *Client) ApplyCatalog(ctx context.Context, worldID string, catalog *CatalogBuilder) error {
	u, err := c.worldURL(worldID, "catalog")
	if err != nil {
		return fmt.Errorf("failed to build URL: %w", err)
	}
	return c.post(ctx, u, catalog.Build(), nil)
}

// Spawn adds one atom to a world and returns its entity ID.
func (c *Client) Spawn(ctx context.Context, worldID, element string, x, y, z float64) (int, error) {
	u, err := c.worldURL(worldID, "spawn")
	if err != nil {
		return -1, fmt.Errorf("failed to build URL: %w", err)
	}

	body := map[string]any{"element": element, "x": x, "y": y, "z": z}
	var out struct {
		ID int `json:"id"`
	}
	if err := c.post(ctx, u, body, &out); err != nil {
		return -1, err
	}
	return out.ID, nil
}

// Tick advances a world by n steps and returns the new tick count.
func (c *Client) Tick(ctx context.Context, worldID string, n int) (uint64, error) {
	u, err := c.worldURL(worldID, "tick")
	if err != nil {
		return 0, fmt.Errorf("failed to build URL: %w", err)
	}
	u = fmt.Sprintf("%s?n=%d", u, n)

	var out struct {
		Tick uint64 `json:"tick"`
	}
	if err := c.post(ctx, u, nil, &out); err != nil {
		return 0, err
	}
	return out.Tick, nil
}

// Start begins auto-running a world with the given tick interval in
// milliseconds.
func (c *Client) Start(ctx context.Context, worldID string, intervalMs int) error {
	u, err := c.worldURL(worldID, "start")
	if err != nil {
		return fmt.Errorf("failed to build URL: %w", err)
	}
	u = fmt.Sprintf("%s?interval=%d", u, intervalMs)
	return c.post(ctx, u, nil, nil)
}

// Stop halts a world's auto-run loop.
func (c *Client) Stop(ctx context.Context, worldID string) error {
	u, err := c.worldURL(worldID, "stop")
	if err != nil {
		return fmt.Errorf("failed to build URL: %w", err)
	}
	return c.post(ctx, u, nil, nil)
}

// Bond asks the server to bond source onto target's molecule.
func (c *Client) Bond(ctx context.Context, worldID string, source, target int, forced bool) error {
	u, err := c.worldURL(worldID, "bond")
	if err != nil {
		return fmt.Errorf("failed to build URL: %w", err)
	}
	return c.post(ctx, u, map[string]any{"source": source, "target": target, "forced": forced}, nil)
}

// CycleBond asks the server to close a ring between two entities of the
// same molecule.
func (c *Client) CycleBond(ctx context.Context, worldID string, i, j int) error {
	u, err := c.worldURL(worldID, "bond")
	if err != nil {
		return fmt.Errorf("failed to build URL: %w", err)
	}
	return c.post(ctx, u, map[string]any{"source": i, "target": j, "cycle": true}, nil)
}

// Break detaches an entity from its parent. With all set, every bond of
// the entity is broken instead.
func (c *Client) Break(ctx context.Context, worldID string, id int, all bool) error {
	u, err := c.worldURL(worldID, "break")
	if err != nil {
		return fmt.Errorf("failed to build URL: %w", err)
	}
	return c.post(ctx, u, map[string]any{"id": id, "all": all}, nil)
}

// WorldState is the server's full dump of one world.
type WorldState struct {
	WorldID  string           `json:"world_id"`
	Tick     uint64           `json:"tick"`
	Running  bool             `json:"running"`
	Entities []sim.EntityView `json:"entities"`
}

// State fetches a consistent dump of every entity in a world.
func (c *Client) State(ctx context.Context, worldID string) (WorldState, error) {
	u, err := c.worldURL(worldID, "state")
	if err != nil {
		return WorldState{}, fmt.Errorf("failed to build URL: %w", err)
	}

	var out WorldState
	if err := c.get(ctx, u, &out); err != nil {
		return WorldState{}, err
	}
	return out, nil
}

// Molecules fetches the molecule census of a world. minSize filters out
// molecules with fewer atoms.
func (c *Client) Molecules(ctx context.Context, worldID string, minSize int) ([]sim.MoleculeInfo, error) {
	u, err := c.worldURL(worldID, "molecules")
	if err != nil {
		return nil, fmt.Errorf("failed to build URL: %w", err)
	}
	u = fmt.Sprintf("%s?min=%d", u, minSize)

	var out []sim.MoleculeInfo
	if err := c.get(ctx, u, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Events fetches the most recent bond events of a world from the
// server's journal.
func (c *Client) Events(ctx context.Context, worldID string, limit int) ([]sim.BondEvent, error) {
	u, err := c.worldURL(worldID, "events")
	if err != nil {
		return nil, fmt.Errorf("failed to build URL: %w", err)
	}
	u = fmt.Sprintf("%s?limit=%d", u, limit)

	var out []sim.BondEvent
	if err := c.get(ctx, u, &out); err != nil {
		return nil, err
	}
	return out, nil
}
