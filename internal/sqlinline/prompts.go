package sqlinline

const QInsertPrompt = `--sql 8e1f8a44-3c52-4f6e-9f0a-2b6c4d1e7a91
insert into prompts(
  id,
  owner_id,
  prompt_text,
  kind,
  model,
  size,
  duration_seconds,
  aspect_ratio,
  status,
  created_at,
  updated_at
) values (
  gen_random_uuid(),
  $1::uuid,
  $2::text,
  $3::text,
  $4::text,
  nullif($5::text, ''),
  $6::int,
  nullif($7::text, ''),
  'PENDING',
  now(),
  now()
) returning id, created_at;
`

// Status guard: the update only lands when the current status is one of the
// allowed predecessors, which keeps prompt transitions monotonic even under
// concurrent writers.
const QUpdatePromptStatus = `--sql 5b7c9d02-6e14-4a3b-8c5d-0f2a1b3c4d5e
update prompts
set status = $2::text, updated_at = now()
where id = $1::uuid
  and status = any($3::text[])
returning status;
`

const QSelectPromptForOwner = `--sql 3a2b1c0d-9e8f-4756-a1b2-c3d4e5f60718
select id, owner_id, prompt_text, kind, model, coalesce(size, ''),
       duration_seconds, coalesce(aspect_ratio, ''), status, created_at, updated_at
from prompts
where id = $1::uuid and owner_id = $2::uuid
limit 1;
`
