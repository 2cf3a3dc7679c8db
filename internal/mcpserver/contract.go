package mcpserver

// NameTypesGuide describes how resolve_compound picks a name for each record
// and which name-types callers may pass.
const NameTypesGuide = `# chemid Name-Type Guide

PubChem attaches several "IUPAC Name" properties to a compound record. Each
carries a name-type in its URN. resolve_compound picks one name per record
using a priority list of name-types.

## Name-types

- Traditional (CID 612: lactic acid)
- Preferred (CID 612: 2-hydroxypropanoic acid)
- Systematic
- CAS-like Style
- Allowed

## Rules

1. Only properties labelled ` + "`" + `IUPAC Name` + "`" + ` are considered. Matching of the
   label and of the name-type ignores case.
2. The name whose name-type appears earliest in the priority list wins.
   Among several names of the same name-type, the first one listed wins.
3. The default priority is ` + "`" + `Traditional,Preferred` + "`" + `.
4. A record without any eligible name is still part of the chain, with an
   empty name.
5. A record without an identifier ends the chain: it and every record after
   it are dropped.

## Chain

The first record is the compound itself; later records are its parents.
With ` + "`" + `oldest=true` + "`" + ` the records are ordered by ascending CID first, so
the earliest registered compound heads the chain.

` + "```" + `
91435(lactate) -> 612(lactic acid)
` + "```" + `
`
