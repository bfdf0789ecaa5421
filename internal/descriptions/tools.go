package descriptions

// Comprehensive tool descriptions with practical examples and use cases

const (
	DXFExtractFileDescription = `Extract all human-readable text from a DXF drawing.

**When to use:** Need the annotation text of a drawing for translation, review, or indexing.

**Why it's useful:** Walks model space, paper-space layouts, and block definitions, strips paragraph-text formatting codes, filters out layer names and other structural noise, and deduplicates by entity so each string appears once. Falls back to a raw record scan when a drawing is structurally damaged.

**Examples:**
• Prepare a translation worksheet: "Extract text from plant-layout.dxf into strings.csv"
• Audit annotations: "List every label in electrical-panel.dxf"

**Common workflows:**
1. Translation: Extract text → fill in translation column → dxf_translate_file
2. Review: Extract text → check terminology → report inconsistencies

**Best practices:** Validate the file first; a degraded result means the drawing needed the repair path and provenance is unavailable.`

	DXFExtractDirectoryDescription = `Extract and merge the text of every DXF drawing in a directory.

**When to use:** Building one translation worksheet that covers a whole project's drawings.

**Why it's useful:** Produces a single alphabetized, deduplicated string list across all files, so each phrase is translated once no matter how many drawings repeat it. Files that yield nothing are listed separately.

**Examples:**
• Project worksheet: "Extract all text under /drawings/unit-3 into unit-3-strings.csv"

**Common workflows:**
1. Batch translation setup: Extract directory → translate worksheet → dxf_translate_directory

**Best practices:** Keep the generated CSV's column layout when filling in translations; the loader recognizes it.`

	DXFTranslateFileDescription = `Write translations back into a DXF drawing from a filled-in table.

**When to use:** A translation table (CSV or XLSX) exists for the drawing's text.

**Why it's useful:** Matches each text entity against the table, tolerating incidental whitespace differences, then rewrites the entity with the translated string, a dedicated text style, and a reduced height so longer translations still fit. The original file is never modified; a translated copy is saved alongside it.

**Examples:**
• "Translate plant-layout.dxf using translations.xlsx"

**Common workflows:**
1. Single drawing: dxf_extract_file → fill table → dxf_translate_file → open translated copy in CAD

**Best practices:** An empty or unreadable table fails the run rather than silently translating nothing; check the summary counters for skipped entities.`

	DXFTranslateDirectoryDescription = `Translate every DXF drawing in a directory against one table.

**When to use:** A project-wide translation table is ready and many drawings need it applied.

**Why it's useful:** Runs drawings concurrently, each end to end, and totals the per-file summaries. One failed drawing is reported but never stops the rest.

**Examples:**
• "Translate everything under /drawings/unit-3 with unit-3-translations.csv"

**Best practices:** Review the failed-paths list afterwards; failures are usually unreadable files, not missing translations.`

	DXFValidateFileDescription = `Verify a DXF file is structurally readable before processing.

**When to use:** Before extraction or translation, especially in automated workflows or on files of unknown origin.

**Why it's useful:** Reports whether the section structure parses, plus layout, block, and text-entity counts, so broken files are caught before a batch run.

**Common workflows:**
1. Automated processing: Validate → extract or translate if valid → route bad files to repair

**Best practices:** A file that fails validation can still yield text through dxf_extract_file's degraded repair path.`

	DXFServerInfoDescription = `Get server information, the configured drawing directory, and its contents.

**When to use:** First call in a session, or when unsure which directory the server is confined to.

**Why it's useful:** Shows the drawing root all paths must live under, how many drawings it holds, and the active file-size limit.`
)
